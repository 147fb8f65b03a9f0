package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellojohn-guard/internal/security/signedtoken"
	"github.com/dropDatabas3/hellojohn-guard/internal/util/atomicwrite"
)

// errRejected marca decisiones negativas: salida != 0 sin ser un error de uso.
type errRejected struct{ code string }

func (e errRejected) Error() string { return "rejected: " + e.code }

func parseFormat(s string) (signedtoken.Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cookie":
		return signedtoken.FormatCookie, nil
	case "csrf":
		return signedtoken.FormatCSRF, nil
	default:
		return 0, fmt.Errorf("--format debe ser cookie o csrf")
	}
}

func (c *cli) codec() (*signedtoken.Codec, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	ring, err := cfg.KeyRing()
	if err != nil {
		return nil, err
	}
	return signedtoken.New(ring)
}

func newGenSecretCmd(c *cli) *cobra.Command {
	var (
		n         int
		writeTo   string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "gen-secret",
		Short: "Genera un secreto HMAC aleatorio (base64)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := signedtoken.GenerateSecret(n)
			if err != nil {
				return err
			}
			if writeTo == "" {
				c.print(map[string]any{"secret": s}, s)
				return nil
			}
			if err := atomicwrite.WriteFile(writeTo, []byte(s+"\n"), 0o600, overwrite); err != nil {
				return err
			}
			c.print(map[string]any{"written": writeTo}, "secret written to "+writeTo)
			return nil
		},
	}
	cmd.Flags().IntVar(&n, "bytes", signedtoken.MinSecretLen, "cantidad de bytes aleatorios (mínimo 32)")
	cmd.Flags().StringVar(&writeTo, "write", "", "escribe el secreto en este archivo (0600) en vez de stdout")
	cmd.Flags().BoolVar(&overwrite, "force", false, "sobrescribe --write si ya existe")
	return cmd
}

func newSignCmd(c *cli) *cobra.Command {
	var (
		format string
		claims []string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Firma un token con la clave actual",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			payload := make(map[string]any, len(claims))
			for _, kv := range claims {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || strings.TrimSpace(k) == "" {
					return fmt.Errorf("--claim espera key=value, recibido %q", kv)
				}
				payload[strings.TrimSpace(k)] = v
			}
			codec, err := c.codec()
			if err != nil {
				return err
			}
			if f == signedtoken.FormatCSRF && ttl == 0 {
				cfg, _ := c.config()
				ttl = cfg.CSRF.TokenTTL
			}
			var opts []signedtoken.SignOption
			if ttl > 0 {
				opts = append(opts, signedtoken.ExpiresIn(ttl))
			}
			tok, err := codec.Sign(f, payload, opts...)
			if err != nil {
				return err
			}
			c.print(map[string]any{"token": tok, "format": f.String()}, tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "cookie", "cookie|csrf")
	cmd.Flags().StringArrayVar(&claims, "claim", nil, "claim key=value (repetible)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "vigencia; 0 = sin exp (csrf usa csrf.token_ttl)")
	return cmd
}

func newVerifyCmd(c *cli) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "verify TOKEN",
		Short: "Verifica un token contra la clave actual y la anterior",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			codec, err := c.codec()
			if err != nil {
				return err
			}
			res := codec.Verify(f, args[0])
			code := res.Reason.Code().String()
			out := map[string]any{"valid": res.Valid, "reason": code}
			text := "valid=" + fmt.Sprint(res.Valid) + " reason=" + code
			if res.Valid {
				out["kid"] = res.KeyID
				out["payload"] = res.Payload
				text += " kid=" + res.KeyID
			}
			c.print(out, text)
			if !res.Valid {
				return errRejected{code: code}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "cookie", "cookie|csrf")
	return cmd
}
