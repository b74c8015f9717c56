package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// tokenView is the JSON-friendly projection of a configured token; the key
// material itself is never included.
type tokenView struct {
	SecretID  uint32 `json:"secret_id"`
	Realm     string `json:"realm,omitempty"`
	KeyLength int    `json:"key_length_bytes"`
	ExpireAt  string `json:"expire_at,omitempty"`
}

func formatTokens(tokens []tokenView, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(tokens, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal tokens to JSON: %w", err)
		}
		return string(data), nil
	case formatTable:
		var buf strings.Builder
		w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SECRET-ID\tREALM\tKEY-LENGTH\tEXPIRE-AT")
		for _, tv := range tokens {
			realm := tv.Realm
			if realm == "" {
				realm = "-"
			}
			expire := tv.ExpireAt
			if expire == "" {
				expire = "never"
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", tv.SecretID, realm, tv.KeyLength, expire)
		}
		if err := w.Flush(); err != nil {
			return "", fmt.Errorf("flush tabwriter: %w", err)
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}
