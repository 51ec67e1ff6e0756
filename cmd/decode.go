package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danvoulez/ubl-auth/internal/format"
	"github.com/danvoulez/ubl-auth/internal/jwks"
	"github.com/danvoulez/ubl-auth/internal/output"
	"github.com/danvoulez/ubl-auth/internal/token"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [input]",
	Short: "Decode a token without verifying it",
	Long:  "Decodes a compact token and pretty-prints its header and claims without any signature or claims verification. Input can be a file path, URL, raw token string, or piped via stdin. JWKS documents are detected and summarized instead.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	input := ""
	if len(args) > 0 {
		input = args[0]
	}

	raw, err := format.ReadInput(input)
	if err != nil {
		return err
	}

	opts := outputOptions()

	switch format.Detect(raw) {
	case format.FormatJWT:
		tok, err := token.Decode(raw)
		if err != nil {
			return fmt.Errorf("decoding token: %w", err)
		}
		output.PrintToken(tok, opts)

	case format.FormatJWKS:
		doc, err := jwks.ParseDocument([]byte(raw))
		if err != nil {
			return fmt.Errorf("parsing JWKS: %w", err)
		}
		output.PrintJWKS(doc, opts)

	default:
		return fmt.Errorf("unable to detect input format (not a compact token or JWKS document)")
	}

	return nil
}
