package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect configured authentication tokens",
	}

	cmd.AddCommand(tokenListCmd())

	return cmd
}

func tokenListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured tokens (secret_id, realm, key length, expiry -- never the key itself)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			views := make([]tokenView, 0, len(cfg.Tokens))
			for _, tc := range cfg.Tokens {
				t, err := tc.Token()
				if err != nil {
					return fmt.Errorf("decode token (secret_id=%d): %w", tc.SecretID, err)
				}
				views = append(views, tokenView{
					SecretID:  t.SecretID,
					Realm:     string(t.Realm),
					KeyLength: len(t.Key),
					ExpireAt:  tc.ExpireAt,
				})
			}

			out, err := formatTokens(views, outputFormat)
			if err != nil {
				return fmt.Errorf("format tokens: %w", err)
			}

			fmt.Print(out)

			return nil
		},
	}
}
