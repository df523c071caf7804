package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	playerFirstName   string
	playerLastName    string
	playerAffiliation string
	filterAffiliation string
	filterLevel       string
	teamA             []string
	teamB             []string
	opponentUnknown   bool
	teamAScore        int
	teamBScore        int
)

func init() {
	playersCmd.Flags().StringVar(&filterAffiliation, "affiliation", "", "Only list players with this affiliation")
	playersCmd.Flags().StringVar(&filterLevel, "level", "", "Only list players at this level (L1-L8)")

	registerCmd.Flags().StringVar(&playerFirstName, "first-name", "", "First name of the player")
	registerCmd.Flags().StringVar(&playerLastName, "last-name", "", "Last name of the player")
	registerCmd.Flags().StringVar(&playerAffiliation, "affiliation", "Ericsson", "Ericsson or Away")
	registerCmd.MarkFlagRequired("first-name")
	registerCmd.MarkFlagRequired("last-name")

	recordCmd.Flags().StringSliceVar(&teamA, "team-a", nil, "Player ids of team A (two, comma separated)")
	recordCmd.Flags().StringSliceVar(&teamB, "team-b", nil, "Player ids of team B (two, comma separated)")
	recordCmd.Flags().BoolVar(&opponentUnknown, "opponent-unknown", false, "Team B is not registered")
	recordCmd.Flags().IntVar(&teamAScore, "score-a", 0, "Points scored by team A")
	recordCmd.Flags().IntVar(&teamBScore, "score-b", 0, "Points scored by team B")
	recordCmd.MarkFlagRequired("team-a")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(announceCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List players ordered by rating",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if filterAffiliation != "" {
			q.Set("affiliation", filterAffiliation)
		}
		if filterLevel != "" {
			q.Set("level", filterLevel)
		}
		endpoint := "/api/players"
		if len(q) > 0 {
			endpoint += "?" + q.Encode()
		}
		return performGetRequest(endpoint)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new player",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/api/players", map[string]string{
			"first_name":  playerFirstName,
			"last_name":   playerLastName,
			"affiliation": playerAffiliation,
		})
	},
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a match result",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"team_a":           teamA,
			"opponent_unknown": opponentUnknown,
			"team_a_score":     teamAScore,
			"team_b_score":     teamBScore,
		}
		if !opponentUnknown {
			body["team_b"] = teamB
		}
		return performPostRequest("/api/matches", body)
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List recorded matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/api/matches")
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <player-id>",
	Short: "Show the rating history of a player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/api/players/" + url.PathEscape(args[0]) + "/history")
	},
}

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Show the level table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/api/levels")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Post the leaderboard to the Slack channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/api/leaderboard/announce", nil)
	},
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	return printResponse(resp)
}

func performPostRequest(endpoint string, payload any) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") == nil {
		fmt.Println(pretty.String())
	} else {
		fmt.Println(string(body))
	}
	return nil
}
