package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellojohn-guard/internal/config"
)

// cli guarda los flags globales y el config cargado on-demand.
type cli struct {
	ConfigPath string
	OutFormat  string // "json" | "text"
	out        io.Writer

	cfg *config.Config
}

func (c *cli) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// print escribe v como JSON indentado o, en modo text, la línea ya armada.
func (c *cli) print(v any, text string) {
	if c.OutFormat == "json" {
		p, _ := json.MarshalIndent(v, "", "  ")
		fmt.Fprintln(c.out, string(p))
		return
	}
	fmt.Fprintln(c.out, text)
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{
		ConfigPath: envOr("CONFIG_PATH", ""),
		OutFormat:  envOr("GUARDCTL_OUT", "text"),
		out:        out,
	}

	root := &cobra.Command{
		Use:           "guardctl",
		Short:         "Herramientas de operador para hellojohn-guard (claves, tokens, proxies, CSRF)",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.OutFormat != "json" && c.OutFormat != "text" {
				return fmt.Errorf("--out debe ser json o text")
			}
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", c.ConfigPath, "ruta al config YAML (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&c.OutFormat, "out", c.OutFormat, "formato de salida: json|text (env GUARDCTL_OUT)")

	root.AddCommand(
		newGenSecretCmd(c),
		newSignCmd(c),
		newVerifyCmd(c),
		newResolveIPCmd(c),
		newCheckOriginCmd(c),
		newCheckRotationCmd(c),
	)
	return root
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
