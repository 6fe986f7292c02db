package models

import "strings"

// Asset identifies a tradable instrument. Identity is the symbol only,
// anything richer (exchange, asset class) lives with the caller.
type Asset struct {
	Symbol string `json:"symbol"`
}

func NewAsset(symbol string) Asset {
	return Asset{Symbol: strings.ToUpper(symbol)}
}

func (a Asset) String() string {
	return a.Symbol
}
