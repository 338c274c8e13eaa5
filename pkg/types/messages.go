package types

// RootArtifact is the content of merkle-root.json.
type RootArtifact struct {
	Root string `json:"root"`
}

// ProofEntry is the per-address value in merkle-proofs.json.
type ProofEntry struct {
	Amount string   `json:"amount"`
	Proof  []string `json:"proof"`
}

// ProofsArtifact is the content of merkle-proofs.json, keyed by address as given
// in the whitelist.
type ProofsArtifact map[string]ProofEntry

// RootResponse is returned by GET /root
type RootResponse struct {
	Root          string `json:"root"`
	Version       int64  `json:"version"`
	WhitelistHash string `json:"whitelistHash"`
	EntryCount    int    `json:"entryCount"`
}

// ProofResponse is returned by GET /proof
type ProofResponse struct {
	Address string   `json:"address"`
	Amount  string   `json:"amount"`
	Proof   []string `json:"proof"`
	Root    string   `json:"root"`
	Version int64    `json:"version"`
}

// VerifyRequest is the body of POST /verify. Root is optional and defaults to
// the active distribution root.
type VerifyRequest struct {
	Address string   `json:"address"`
	Amount  string   `json:"amount"`
	Proof   []string `json:"proof"`
	Root    string   `json:"root,omitempty"`
}

// VerifyResponse is returned by POST /verify
type VerifyResponse struct {
	Valid bool   `json:"valid"`
	Root  string `json:"root"`
}

// ErrorResponse is the JSON body for non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
