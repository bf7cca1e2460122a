package group

import (
	"errors"
	"regexp"
	"strings"

	"stonx/internal/domain/marketdata"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrGroupExists   = errors.New("group already exists with that name")
)

// Type 列舉群組類型。
type Type string

const (
	TypeManual  Type = "manual"
	TypeSector  Type = "sector"
	TypeCluster Type = "cluster"
)

// Valid 檢查類型是否受支援。
func (t Type) Valid() bool {
	switch t {
	case TypeManual, TypeSector, TypeCluster:
		return true
	}
	return false
}

// Group 為使用者自訂的觀察清單。
type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    Type     `json:"type"`
	Symbols []string `json:"symbols"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 由名稱產生群組 ID，例如 "MegaCap Tech" -> "megacap-tech"。
func Slugify(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}

// UniqueSymbols 正規化並去除重複代號，保留原順序。
func UniqueSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		n := marketdata.NormalizeSymbol(s)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
