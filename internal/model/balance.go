package model

// Balance is the amount held by one token account.
type Balance struct {
	Mint   string `json:"mint"`
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`
}

// Supply is the total minted amount of a token.
type Supply struct {
	Mint   string `json:"mint"`
	Amount uint64 `json:"amount"`
}
