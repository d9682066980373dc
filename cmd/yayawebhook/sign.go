package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	yayawebhook "github.com/dawitel/yaya-webhook"
	"github.com/spf13/cobra"
)

const samplePayload = `{
  "id": "1dd2854e-3a79-4548-ae36",
  "amount": 100,
  "currency": "ETB",
  "created_at_time": 1673381836,
  "timestamp": 1701272333,
  "cause": "Testing Payment",
  "full_name": "Abebe Kebede",
  "account_name": "abebekebede1",
  "invoice_url": "https://yayawallet.com/en/invoice/xxxx"
}`

type signOptions struct {
	secret      string
	payloadFile string
	timestamp   int64
	postURL     string
}

func signCmd() *cobra.Command {
	opts := signOptions{}

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a payload and print the YAYA-SIGNATURE header",
		Long: "Sign a JSON payload the way the wallet provider does and print the\n" +
			"header and body for manual testing. With --post the request is sent.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.secret, "secret", "s", os.Getenv("WEBHOOK_SECRET"), "Shared secret (defaults to $WEBHOOK_SECRET)")
	cmd.Flags().StringVarP(&opts.payloadFile, "payload", "p", "", "JSON payload file (defaults to a sample payload)")
	cmd.Flags().Int64VarP(&opts.timestamp, "timestamp", "t", 0, "Signature timestamp in unix seconds (defaults to now)")
	cmd.Flags().StringVar(&opts.postURL, "post", "", "POST the signed request to this URL")

	return cmd
}

func runSign(out io.Writer, opts signOptions) error {
	if opts.secret == "" {
		return fmt.Errorf("a secret is required (--secret or WEBHOOK_SECRET)")
	}

	body := []byte(samplePayload)
	if opts.payloadFile != "" {
		data, err := os.ReadFile(opts.payloadFile)
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}
		body = data
	}

	payload, err := yayawebhook.DecodePayload(body)
	if err != nil {
		return err
	}

	timestamp := opts.timestamp
	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}

	header := yayawebhook.SignatureHeader{
		Timestamp: timestamp,
		Signature: yayawebhook.Sign(opts.secret, payload),
	}

	fmt.Fprintf(out, "%s: %s\n", yayawebhook.SignatureHeaderName, header)
	fmt.Fprintf(out, "Body:\n%s\n", bytes.TrimSpace(body))

	if opts.postURL == "" {
		return nil
	}

	req, err := http.NewRequest(http.MethodPost, opts.postURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(yayawebhook.SignatureHeaderName, header.String())

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Fprintf(out, "Response: %d %s\n", resp.StatusCode, bytes.TrimSpace(respBody))

	return nil
}
