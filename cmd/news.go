package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/naaf-labs/naaf-cli/internal/model"
	"github.com/naaf-labs/naaf-cli/internal/newsfeed"
	"github.com/naaf-labs/naaf-cli/pkg/youdotcom"
)

var newsJSON bool

var newsCmd = &cobra.Command{
	Use:   "news <country>",
	Short: "Show recent AI news for a country",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("news"); err != nil {
			return err
		}

		client := youdotcom.NewClient(cfg.YouCom.Key,
			youdotcom.WithNewsBaseURL(cfg.YouCom.NewsBaseURL),
			youdotcom.WithRateLimit(cfg.YouCom.RatePerSec),
			youdotcom.WithTimeout(cfg.YouCom.Timeout()),
		)
		svc := newsfeed.NewService(client, zap.L(), newsfeed.Options{
			TTL:       cfg.News.TTL(),
			ItemCount: cfg.News.ItemCount,
		})

		entity := model.NewEntity(strings.Join(args, " "))
		feed := svc.Get(cmd.Context(), entity)

		if newsJSON {
			return json.NewEncoder(os.Stdout).Encode(feed)
		}
		if len(feed.Items) == 0 {
			fmt.Printf("no recent AI news found for %s\n", entity.Name)
			return nil
		}
		for _, item := range feed.Items {
			fmt.Printf("- %s\n  %s", item.Title, item.URL)
			if item.Source != "" {
				fmt.Printf("  (%s)", item.Source)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().BoolVar(&newsJSON, "json", false, "emit JSON")
	rootCmd.AddCommand(newsCmd)
}
