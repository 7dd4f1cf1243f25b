package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reconhq/recon/cmd/recon/internal/config"
)

// validateServiceName checks that a service name is safe for use as a
// filename.
func validateServiceName(service string) error {
	if service == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if strings.ContainsAny(service, "/\\") {
		return fmt.Errorf("service name %q must not contain path separators", service)
	}
	if strings.HasPrefix(service, ".") {
		return fmt.Errorf("service name %q must not start with '.'", service)
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage contexts and service configurations.

A context is a named directory holding per-service YAML config files,
typically gemini.yaml (credentials, models) and api.yaml (server
addresses).

Examples:
  recon config list-contexts
  recon config add-context prod
  recon config use-context dev
  recon config current-context
  recon config set dev gemini api_key YOUR_KEY
  recon config get dev gemini api_key`,
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"ls"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		names, err := cfg.ListContexts()
		if err != nil {
			return err
		}

		if len(names) == 0 {
			fmt.Println("No contexts configured.")
			fmt.Println("Create one with: recon config add-context <name>")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tSERVICES")
		for _, name := range names {
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			services, _ := config.ListServices(cfg.ContextDir(name))
			fmt.Fprintf(w, "%s\t%s\t%s\n", current, name, strings.Join(services, ", "))
		}
		w.Flush()
		return nil
	},
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Create a new context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name := args[0]

		if err := cfg.AddContext(name); err != nil {
			return err
		}
		fmt.Printf("Context %q created.\n", name)
		fmt.Printf("Configure services with: recon config set %s <service> <key> <value>\n", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context and all its service configs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		fmt.Printf("Context %q deleted.\n", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		fmt.Printf("Switched to context %q.\n", args[0])
		return nil
	},
}

var configCurrentContextCmd = &cobra.Command{
	Use:   "current-context",
	Short: "Display the current context name",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			fmt.Println("No current context set.")
			return nil
		}
		fmt.Println(cfg.CurrentContext)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <context> <service> <key> <value>",
	Short: "Set a service config value",
	Long: `Set a key-value pair in a service's YAML config file.

Examples:
  recon config set dev gemini api_key YOUR_KEY
  recon config set dev gemini voice Kore
  recon config set dev api base_url http://localhost:8787`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctxName, service, key, value := args[0], args[1], args[2], args[3]
		if err := config.ValidateContextName(ctxName); err != nil {
			return err
		}
		if err := validateServiceName(service); err != nil {
			return err
		}

		contextDir := cfg.ContextDir(ctxName)
		if _, err := os.Stat(contextDir); os.IsNotExist(err) {
			return fmt.Errorf("context %q not found", ctxName)
		}

		// Load the existing service map, or start fresh.
		servicePath := filepath.Join(contextDir, service+".yaml")
		m := map[string]any{}
		if _, statErr := os.Stat(servicePath); statErr == nil {
			existing, loadErr := config.LoadService[map[string]any](contextDir, service)
			if loadErr != nil {
				return fmt.Errorf("cannot read existing %s config: %w", service, loadErr)
			}
			if *existing != nil {
				m = *existing
			}
		}
		m[key] = value

		if err := config.SaveService(contextDir, service, &m); err != nil {
			return err
		}
		fmt.Printf("Set %s.%s (context: %s)\n", service, key, ctxName)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <context> <service> <key>",
	Short: "Get a service config value",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctxName, service, key := args[0], args[1], args[2]
		if err := config.ValidateContextName(ctxName); err != nil {
			return err
		}
		if err := validateServiceName(service); err != nil {
			return err
		}

		contextDir, err := cfg.ResolveContext(ctxName)
		if err != nil {
			return err
		}
		m, err := config.LoadService[map[string]any](contextDir, service)
		if err != nil {
			return err
		}
		v, ok := (*m)[key]
		if !ok {
			return fmt.Errorf("key %q not set in %s.yaml", key, service)
		}
		fmt.Println(v)
		return nil
	},
}

func init() {
	configCmd.AddCommand(
		configListContextsCmd,
		configAddContextCmd,
		configDeleteContextCmd,
		configUseContextCmd,
		configCurrentContextCmd,
		configSetCmd,
		configGetCmd,
	)
	rootCmd.AddCommand(configCmd)
}
