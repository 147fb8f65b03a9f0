package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellojohn-guard/internal/security/csrf"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/peer"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/rotation"
)

func newResolveIPCmd(c *cli) *cobra.Command {
	var peerIP, xff string
	cmd := &cobra.Command{
		Use:   "resolve-ip",
		Short: "Resuelve la IP de cliente con los proxies confiables del config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			pc, err := cfg.PeerConfig()
			if err != nil {
				return err
			}
			r, err := peer.NewResolver(pc)
			if err != nil {
				return err
			}
			res := r.Resolve(peerIP, xff)
			c.print(map[string]any{
				"client_ip":    res.IP,
				"peer_trusted": res.PeerTrusted,
				"from_header":  res.FromHeader,
				"reason":       res.Code.String(),
			}, fmt.Sprintf("%s peer_trusted=%t from_header=%t reason=%s", res.IP, res.PeerTrusted, res.FromHeader, res.Code))
			return nil
		},
	}
	cmd.Flags().StringVar(&peerIP, "peer", "", "IP del peer TCP")
	cmd.Flags().StringVar(&xff, "xff", "", "valor de X-Forwarded-For")
	_ = cmd.MarkFlagRequired("peer")
	return cmd
}

func newCheckOriginCmd(c *cli) *cobra.Command {
	var origin, referer, token string
	cmd := &cobra.Command{
		Use:   "check-origin",
		Short: "Evalúa Origin/Referer (o un token CSRF) contra el allow-list del config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			codec, err := c.codec()
			if err != nil {
				return err
			}
			v, err := csrf.NewValidator(csrf.Config{AllowedOrigins: cfg.CSRF.AllowedOrigins, TokenTTL: cfg.CSRF.TokenTTL}, codec)
			if err != nil {
				return err
			}
			d := v.Check(origin, referer, token)
			c.print(map[string]any{"accepted": d.Accepted, "reason": d.Code.String(), "via": d.Via},
				fmt.Sprintf("accepted=%t reason=%s via=%s", d.Accepted, d.Code, d.Via))
			if !d.Accepted {
				return errRejected{code: d.Code.String()}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "", "header Origin")
	cmd.Flags().StringVar(&referer, "referer", "", "header Referer")
	cmd.Flags().StringVar(&token, "token", "", "token CSRF de respaldo")
	return cmd
}

func newCheckRotationCmd(c *cli) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "check-rotation",
		Short: `Verifica la rotación de sesión a partir de un JSON {"before":{...},"after":{...}}`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			var pair rotation.SessionPair
			if err := json.NewDecoder(in).Decode(&pair); err != nil {
				return fmt.Errorf("json inválido: %w", err)
			}
			out := rotation.NewVerifier(nil).Check(pair)
			c.print(map[string]any{
				"satisfied":       out.Satisfied,
				"refresh_changed": out.RefreshChanged,
				"jti_changed":     out.JTIChanged,
				"anomalies":       out.Anomalies,
			}, fmt.Sprintf("satisfied=%t refresh_changed=%t jti_changed=%t anomalies=%v",
				out.Satisfied, out.RefreshChanged, out.JTIChanged, out.Anomalies))
			if !out.Satisfied {
				return errRejected{code: out.Code.String()}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "archivo JSON (- = stdin)")
	return cmd
}
