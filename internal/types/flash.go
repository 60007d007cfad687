package types

// Flash is a one-shot notification shown on the next rendered page.
// Category is one of "success", "info" or "danger".
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}
