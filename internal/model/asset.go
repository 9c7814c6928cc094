package model

// Asset types. Any other value is priced as a stock.
const (
	AssetTypeStock  = "stock"
	AssetTypeCrypto = "crypto"
)

// Asset is a tradable instrument referenced by transactions and holdings.
type Asset struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
}

// IsCrypto reports whether the asset is priced through the crypto source.
func (a Asset) IsCrypto() bool {
	return a.Type == AssetTypeCrypto
}
