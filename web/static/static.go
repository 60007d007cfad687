package static

import "embed"

// Files holds the stylesheets served under /static/.
//
//go:embed css
var Files embed.FS
