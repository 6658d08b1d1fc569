package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL  string
	timeout  time.Duration
	asOwner  string
	operator string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fulfillctl",
		Short: "FablePress fulfillment CLI",
		Long:  `A command line interface for operating the FablePress fulfillment API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the fulfillment API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&operator, "operator", "operator", "Operator identity sent as X-Owner-ID")

	rootCmd.AddCommand(balanceCmd())
	rootCmd.AddCommand(grantCmd())
	rootCmd.AddCommand(packsCmd())
	rootCmd.AddCommand(ledgerCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show an owner's credit balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/credits/balance", asOwner)
		},
	}
	cmd.Flags().StringVar(&asOwner, "owner", "", "Owner ID to query")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func grantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <owner-id> <amount>",
		Short: "Grant credits to an owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}
			return postJSON("/api/v1/credits/grant", map[string]any{
				"owner_id":   args[0],
				"amount":     amount,
				"event_type": "promotion",
			})
		},
	}
}

func packsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "packs",
		Short: "List purchasable credit packs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/credits/packs", operator)
		},
	}
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger integrity operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check that every balance matches its entry sum",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/ledger/consistency", operator)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "orphans",
		Short: "List refunded requests whose external work order is still standing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/ledger/orphans", operator)
		},
	})

	return cmd
}

func getJSON(path, ownerID string) error {
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		return err
	}
	return doRequest(req, ownerID)
}

func postJSON(path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return doRequest(req, operator)
}

func doRequest(req *http.Request, ownerID string) error {
	if ownerID != "" {
		req.Header.Set("X-Owner-ID", ownerID)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(body), 512))
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		fmt.Println(string(body))
		return nil
	}
	printJSON(parsed)
	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(out))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
