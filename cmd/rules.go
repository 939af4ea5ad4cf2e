package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	automodgrpc "lemmy-automod/grpc"
	"lemmy-automod/schema"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a rule document offline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		document, err := readDocument(args[0])
		if err != nil {
			return err
		}
		return validate(cmd.OutOrStdout(), document)
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Submit a rule document through the operator API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		as, _ := cmd.Flags().GetString("as")
		if as == "" {
			return errors.New("--as is required")
		}
		document, err := readDocument(args[0])
		if err != nil {
			return err
		}

		addr, key := operatorEndpoint(cmd)
		client, err := automodgrpc.NewClient(addr, key, 30*time.Second)
		if err != nil {
			return err
		}
		defer client.Close()

		resp, err := client.SubmitRules(context.Background(), as, string(document))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.GetFields()["summary"].GetStringValue())
		if resp.GetFields()["outcome"].GetStringValue() != "all_succeeded" {
			return errors.New("not every rule was added")
		}
		return nil
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules <community>",
	Short: "List the stored rules of a community",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, key := operatorEndpoint(cmd)
		client, err := automodgrpc.NewClient(addr, key, 30*time.Second)
		if err != nil {
			return err
		}
		defer client.Close()

		resp, err := client.ListRules(context.Background(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp.AsMap())
	},
}

func init() {
	submitCmd.Flags().String("as", "", "platform user the rules are submitted for")
}

// readDocument reads a rule document from a file, or stdin for "-".
func readDocument(path string) ([]byte, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return schema.ExtractDocument(string(raw)), nil
}

func validate(w io.Writer, document []byte) error {
	items, err := schema.Parse(document)
	if err != nil {
		return err
	}

	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
			fmt.Fprintln(w, item.Err.Error())
			continue
		}
		fmt.Fprintf(w, "item %d: %s rule for %s\n", item.Index+1, item.Rule.Kind, item.Rule.Community())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d item(s) invalid", failed, len(items))
	}
	return nil
}
