package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mgomes/khojlink/internal/khoj"
)

func newShowCmd(a *app) *cobra.Command {
	var (
		useDefault bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the Khoj backend configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := khoj.NewClient(a.cfg.KhojURL, a.cfg.RequestTimeout)

			var (
				raw []byte
				err error
			)
			if useDefault {
				raw, err = client.RawDefaultConfig(cmd.Context())
			} else {
				raw, err = client.RawConfig(cmd.Context())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if khoj.IsNullConfig(raw) {
				fmt.Fprintf(out, "Khoj backend at %s is not configured yet, run: khojlink sync\n", client.BaseURL())
				return nil
			}

			rendered, err := renderConfig(raw, asJSON)
			if err != nil {
				return err
			}
			_, err = out.Write(rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&useDefault, "default", false, "show the backend's default configuration")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")

	return cmd
}

// renderConfig pretty prints a raw backend config, keeping key order.
func renderConfig(raw []byte, asJSON bool) ([]byte, error) {
	if asJSON {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return nil, fmt.Errorf("invalid config JSON: %w", err)
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid config JSON: %w", err)
	}
	blockStyle(&doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// blockStyle drops the flow and quoting styles JSON input parses with, so the
// encoder picks plain YAML and quotes only where needed.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
