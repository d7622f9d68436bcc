package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vitalguard",
	Short: "VitalGuard CLI",
	Long:  "A CLI for the VitalGuard vitals monitoring demo: patients, tokens, consent, agent tools and audit.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadConfig()
		// Env var overrides are applied in newClient()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format: table, json, raw")
	rootCmd.PersistentFlags().StringVar(&outputField, "field", "", "Print only this field (use with --format=raw)")

	rootCmd.AddCommand(patientsCmd())
	rootCmd.AddCommand(patientCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(alertCmd())
	rootCmd.AddCommand(consentCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(toolCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(sessionCmd())
}

func patientPath(id string, suffix ...string) string {
	return "/v1/patients/" + url.PathEscape(id) + strings.Join(suffix, "")
}

// run is the shared body of commands that issue one request and print it.
func run(fn func(c *Client) (map[string]any, error)) error {
	result, err := fn(newClient())
	if err != nil {
		printError(err.Error())
		return nil
	}
	printResult(result)
	return nil
}

// --- patients ---

func patientsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patients",
		Short: "List patient ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(c *Client) (map[string]any, error) {
				return c.get("/v1/patients")
			})
		},
	}
}

func patientCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patient <id>",
		Short: "Show a patient's current vitals and critical alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(c *Client) (map[string]any, error) {
				return c.get(patientPath(args[0]))
			})
		},
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <id>",
		Short: "Simulate a new vitals reading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(c *Client) (map[string]any, error) {
				return c.post(patientPath(args[0], "/refresh"), nil)
			})
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <id>",
		Short: "Run the manual threshold check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(c *Client) (map[string]any, error) {
				return c.post(patientPath(args[0], "/check"), nil)
			})
		},
	}
}

func alertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert <id>",
		Short: "Notify the doctor (requires alerts:write and consent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, _ := cmd.Flags().GetString("message")
			return run(func(c *Client) (map[string]any, error) {
				return c.post(patientPath(args[0], "/alert"), map[string]any{"message": msg})
			})
		},
	}
	cmd.Flags().StringP("message", "m", "", "Message for the doctor")
	return cmd
}

// --- consent ---

func consentCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "consent", Short: "Capture and inspect patient consent"}

	captureCmd := &cobra.Command{
		Use:   "capture <id>",
		Short: "Record consent to notify the doctor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			purpose, _ := cmd.Flags().GetString("purpose")
			return run(func(c *Client) (map[string]any, error) {
				return c.post(patientPath(args[0], "/consent"), map[string]any{"purpose": purpose})
			})
		},
	}
	captureCmd.Flags().String("purpose", "", "Purpose of the consent")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show the consent record for a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(c *Client) (map[string]any, error) {
				return c.get(patientPath(args[0], "/consent"))
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List consent records in this session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(c *Client) (map[string]any, error) {
				return c.get("/v1/consent")
			})
		},
	}

	cmd.AddCommand(captureCmd, getCmd, listCmd)
	return cmd
}

// --- token ---

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Issue, revoke and inspect the session token"}

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a token, replacing any existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			scopes, _ := cmd.Flags().GetStringSlice("scope")
			body := map[string]any{}
			if cmd.Flags().Changed("scope") {
				body["scopes"] = scopes
			}
			return run(func(c *Client) (map[string]any, error) {
				return c.post("/v1/auth/token", body)
			})
		},
	}
	issueCmd.Flags().StringSlice("scope", nil, "Scope to grant (repeatable); defaults to vitals:read, alerts:write, consent:manage")

	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().delete("/v1/auth/token"); err != nil {
				printError(err.Error())
				return nil
			}
			printSuccess("Token revoked")
			return nil
		},
	}

	lookupCmd := &cobra.Command{
		Use:   "lookup",
		Short: "Show the active token's scopes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(c *Client) (map[string]any, error) {
				return c.get("/v1/auth/token")
			})
		},
	}

	scopesCmd := &cobra.Command{
		Use:   "scopes",
		Short: "List the scopes a token can be granted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(c *Client) (map[string]any, error) {
				return c.get("/v1/auth/scopes")
			})
		},
	}

	cmd.AddCommand(issueCmd, revokeCmd, lookupCmd, scopesCmd)
	return cmd
}

// --- tool ---

func toolCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "tool", Short: "List and invoke agent tools"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(c *Client) (map[string]any, error) {
				return c.get("/v1/tools")
			})
		},
	}

	runCmd := &cobra.Command{
		Use:   "run <tool> <patient-id>",
		Short: "Invoke a tool for a patient",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, _ := cmd.Flags().GetString("prompt")
			msg, _ := cmd.Flags().GetString("message")
			return run(func(c *Client) (map[string]any, error) {
				return c.post("/v1/tools/"+url.PathEscape(args[0]), map[string]any{
					"patient_id": args[1],
					"prompt":     prompt,
					"message":    msg,
				})
			})
		},
	}
	runCmd.Flags().String("prompt", "", "Agent instruction to record with the call")
	runCmd.Flags().StringP("message", "m", "", "Message for alert_doctor")

	cmd.AddCommand(listCmd, runCmd)
	return cmd
}

// --- audit ---

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "audit", Short: "Review the session audit log"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List audit events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(c *Client) (map[string]any, error) {
				return c.get("/v1/audit")
			})
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export audit events as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			data, err := newClient().download("/v1/audit/export")
			if err != nil {
				printError(err.Error())
				return nil
			}
			if out == "" || out == "-" {
				os.Stdout.Write(data) //nolint:errcheck
				return nil
			}
			if err := os.WriteFile(out, data, 0600); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			printSuccess("Audit log written to " + out)
			return nil
		},
	}
	exportCmd.Flags().StringP("out", "o", "audit_logs.csv", "Output file (- for stdout)")

	cmd.AddCommand(listCmd, exportCmd)
	return cmd
}

// --- session ---

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "session", Short: "Inspect or end the current session"}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(c *Client) (map[string]any, error) {
				return c.get("/v1/sys/session")
			})
		},
	}

	endCmd := &cobra.Command{
		Use:   "end",
		Short: "End the session, discarding its token, consent and audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().delete("/v1/sys/session"); err != nil {
				printError(err.Error())
				return nil
			}
			if err := forgetSession(); err != nil {
				return err
			}
			printSuccess("Session ended")
			return nil
		},
	}

	cmd.AddCommand(showCmd, endCmd)
	return cmd
}
