package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ledgersync-cli",
		Short: "LedgerSync CLI tool",
		Long:  `A command line interface for interacting with the LedgerSync API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the LedgerSync API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Account commands
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	balanceCmd := &cobra.Command{
		Use:   "balance [account-id]",
		Short: "Show an account's running balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			showBalance(args[0])
		},
	}

	accountCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(accountCmd)

	// Connection commands
	connectionCmd := &cobra.Command{
		Use:   "connection",
		Short: "Bank connection operations",
	}

	syncCmd := &cobra.Command{
		Use:   "sync [connection-id]",
		Short: "Trigger a sync pass for a connection",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			triggerSync(args[0])
		},
	}

	connectionCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(connectionCmd)

	// Statement commands
	statementCmd := &cobra.Command{
		Use:   "statement",
		Short: "Bank statement operations",
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile [statement-id]",
		Short: "Run reconciliation against a statement",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runReconciliation(args[0])
		},
	}

	statementCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(statementCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func showBalance(accountID string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/accounts/" + accountID + "/balance")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Balance lookup FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Account: %s\n", result["account_id"])
	fmt.Printf("Balance: %s %s\n", result["balance"], result["currency"])
}

func triggerSync(connectionID string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+"/api/v1/connections/"+connectionID+"/sync", "application/json", bytes.NewReader(nil))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Sync FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sync completed\n")
	fmt.Printf("Added: %v, Modified: %v, Removed: %v\n", result["added"], result["modified"], result["removed"])
}

func runReconciliation(statementID string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+"/api/v1/statements/"+statementID+"/reconcile", "application/json", bytes.NewReader(nil))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Reconciliation FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if balanced, ok := result["balanced"].(bool); ok && balanced {
		fmt.Printf("Reconciliation BALANCED\n")
	} else {
		fmt.Printf("Reconciliation has discrepancies\n")
	}
	fmt.Printf("Matched: %v\n", result["matched_count"])
	if discrepancies, ok := result["discrepancies"].([]any); ok {
		fmt.Printf("Discrepancies: %d\n", len(discrepancies))
	}
}
