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
	"gopkg.in/yaml.v3"

	"github.com/lukashondrich/open-workinghours-sub001/internal/config"
	"github.com/lukashondrich/open-workinghours-sub001/internal/middleware"
	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var server, token string

	root := &cobra.Command{
		Use:           "workctl",
		Short:         "Work session tracking control tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&server, "server", "http://localhost:8080", "tracking server base URL")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("WORKCTL_TOKEN"), "bearer token (defaults to WORKCTL_TOKEN)")

	client := &apiClient{server: &server, token: &token}

	root.AddCommand(newSitesCmd(client))
	root.AddCommand(newClockInCmd(client))
	root.AddCommand(newClockOutCmd(client))
	root.AddCommand(newStatusCmd(client))
	root.AddCommand(newSessionsCmd(client))
	root.AddCommand(newSummaryCmd(client))
	root.AddCommand(newStatsCmd(client))
	root.AddCommand(newReplayCmd(client))
	root.AddCommand(newTokenCmd())
	return root
}

// apiClient talks to the tracking server's JSON API.
type apiClient struct {
	server *string
	token  *string
}

type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *apiClient) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, *c.server+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if *c.token != "" {
		req.Header.Set("Authorization", "Bearer "+*c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("unexpected response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s (status %d)", envelope.Message, resp.StatusCode)
	}
	if out != nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}

func (c *apiClient) get(path string, out interface{}) error {
	return c.do(http.MethodGet, path, nil, out)
}

func (c *apiClient) post(path string, body, out interface{}) error {
	return c.do(http.MethodPost, path, body, out)
}

func newSitesCmd(client *apiClient) *cobra.Command {
	sites := &cobra.Command{Use: "sites", Short: "Manage monitored sites"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sites",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var result []models.Site
			if err := client.get("/api/v1/sites", &result); err != nil {
				return err
			}
			for _, site := range result {
				state := "active"
				if !site.Active {
					state = "inactive"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %-20s  %.5f,%.5f  r=%.0fm  %s\n",
					site.ID, site.Name, site.Latitude, site.Longitude, site.RadiusMeters, state)
			}
			return nil
		},
	}

	var name string
	var lat, lon, radius float64

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a monitored site",
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := models.SiteInput{Name: name, Latitude: lat, Longitude: lon, RadiusMeters: radius}
			var site models.Site
			if err := client.post("/api/v1/sites", input, &site); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created site %s (%s)\n", site.Name, site.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "site name")
	addCmd.Flags().Float64Var(&lat, "lat", 0, "center latitude")
	addCmd.Flags().Float64Var(&lon, "lon", 0, "center longitude")
	addCmd.Flags().Float64Var(&radius, "radius", 100, "geofence radius in meters")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("lat")
	_ = addCmd.MarkFlagRequired("lon")

	importCmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import sites from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			req, err := http.NewRequest(http.MethodPost, *client.server+"/api/v1/sites/import", bytes.NewReader(data))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/x-yaml")
			if *client.token != "" {
				req.Header.Set("Authorization", "Bearer "+*client.token)
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			var envelope apiEnvelope
			if err := json.Unmarshal(raw, &envelope); err != nil {
				return fmt.Errorf("unexpected response (status %d)", resp.StatusCode)
			}
			if resp.StatusCode >= 400 {
				return fmt.Errorf("%s (status %d)", envelope.Message, resp.StatusCode)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported: %s\n", string(envelope.Data))
			return nil
		},
	}

	sites.AddCommand(listCmd)
	sites.AddCommand(addCmd)
	sites.AddCommand(importCmd)
	return sites
}

func newClockInCmd(client *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "clock-in <site-id>",
		Short: "Manually start a session at a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var session models.TrackingSession
			if err := client.post("/api/v1/sites/"+args[0]+"/clock-in", nil, &session); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "clocked in at %s, session %s\n",
				formatMillis(session.ClockInAt), session.ID)
			return nil
		},
	}
}

func newClockOutCmd(client *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "clock-out <site-id>",
		Short: "Manually end the open session at a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var session models.TrackingSession
			if err := client.post("/api/v1/sites/"+args[0]+"/clock-out", nil, &session); err != nil {
				return err
			}
			duration := int64(0)
			if session.DurationMinutes != nil {
				duration = *session.DurationMinutes
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "clocked out, session %s, %d min\n", session.ID, duration)
			return nil
		},
	}
}

func newStatusCmd(client *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "status <site-id>",
		Short: "Show the open session at a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var session models.TrackingSession
			if err := client.get("/api/v1/sites/"+args[0]+"/session", &session); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session %s  state=%s  method=%s  since %s\n",
				session.ID, session.State, session.TrackingMethod, formatMillis(session.ClockInAt))
			return nil
		},
	}
}

func newSessionsCmd(client *apiClient) *cobra.Command {
	var siteID, start, end string
	var includeBelowMinimum bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List past sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := "/api/v1/sessions?limit=50"
			if siteID != "" {
				path += "&siteId=" + siteID
			}
			if start != "" {
				ms, err := dateToMillis(start)
				if err != nil {
					return err
				}
				path += fmt.Sprintf("&start=%d", ms)
			}
			if end != "" {
				ms, err := dateToMillis(end)
				if err != nil {
					return err
				}
				path += fmt.Sprintf("&end=%d", ms)
			}
			if includeBelowMinimum {
				path += "&includeBelowMinimum=true"
			}

			var sessions []models.TrackingSession
			if err := client.get(path, &sessions); err != nil {
				return err
			}
			for _, s := range sessions {
				out := "-"
				if s.ClockOutAt != nil {
					out = formatMillis(*s.ClockOutAt)
				}
				duration := int64(0)
				if s.DurationMinutes != nil {
					duration = *s.DurationMinutes
				}
				flags := ""
				if s.ExitByDefault {
					flags += " exit_by_default"
				}
				if s.BelowMinimum {
					flags += " below_minimum"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  site=%s  %s -> %s  %4dmin  %s  %s%s\n",
					s.ID, s.SiteID, formatMillis(s.ClockInAt), out, duration, s.State, s.TrackingMethod, flags)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&siteID, "site", "", "filter by site id")
	cmd.Flags().StringVar(&start, "start", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "window end (YYYY-MM-DD, exclusive)")
	cmd.Flags().BoolVar(&includeBelowMinimum, "include-below-minimum", false, "include sessions under the duration floor")
	return cmd
}

func newSummaryCmd(client *apiClient) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show daily work summaries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var days []models.DaySummary
			path := fmt.Sprintf("/api/v1/summaries/daily?start=%s&end=%s", start, end)
			if err := client.get(path, &days); err != nil {
				return err
			}
			for _, day := range days {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %4dmin  (auto %d, manual %d)  %d session(s)  %s\n",
					day.Date, day.TotalMinutes, day.AutoMinutes, day.ManualMinutes, day.SessionCount, day.Source)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newStatsCmd(client *apiClient) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show summary statistics for a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var stats models.RangeStats
			path := fmt.Sprintf("/api/v1/summaries/stats?start=%s&end=%s", start, end)
			if err := client.get(path, &stats); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(),
				"days=%d sessions=%d total=%dmin mean=%.1fmin median=%.1fmin max=%dmin\n",
				stats.Days, stats.SessionCount, stats.TotalMinutes,
				stats.MeanDailyMinutes, stats.MedianDailyMinutes, stats.MaxDailyMinutes)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// replayScript is the YAML document accepted by the replay command.
type replayScript struct {
	Steps []struct {
		Kind      string   `yaml:"kind"` // transition, position
		SiteID    string   `yaml:"site_id"`
		EventType string   `yaml:"event_type"`
		Timestamp int64    `yaml:"timestamp"`
		Latitude  *float64 `yaml:"latitude"`
		Longitude *float64 `yaml:"longitude"`
		Accuracy  *float64 `yaml:"accuracy"`
	} `yaml:"steps"`
}

func newReplayCmd(client *apiClient) *cobra.Command {
	var pace time.Duration

	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Replay a scripted sequence of transitions and positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var script replayScript
			if err := yaml.Unmarshal(data, &script); err != nil {
				return fmt.Errorf("failed to parse script: %w", err)
			}

			for i, step := range script.Steps {
				switch step.Kind {
				case "transition":
					payload := models.RawTransition{
						SiteID:    step.SiteID,
						EventType: step.EventType,
						Timestamp: step.Timestamp,
						Latitude:  step.Latitude,
						Longitude: step.Longitude,
						Accuracy:  step.Accuracy,
					}
					var event models.TransitionEvent
					if err := client.post("/api/v1/transitions", payload, &event); err != nil {
						return fmt.Errorf("step %d: %w", i+1, err)
					}
					outcome := "accepted"
					if event.Ignored {
						outcome = "ignored (" + event.IgnoreReason + ")"
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "step %d: %s %s -> %s\n", i+1, step.EventType, step.SiteID, outcome)

				case "position":
					if step.Latitude == nil || step.Longitude == nil || step.Accuracy == nil {
						return fmt.Errorf("step %d: position needs latitude, longitude, accuracy", i+1)
					}
					payload := models.PositionInput{
						Latitude:  *step.Latitude,
						Longitude: *step.Longitude,
						Accuracy:  *step.Accuracy,
						Timestamp: step.Timestamp,
					}
					if err := client.post("/api/v1/positions", payload, nil); err != nil {
						return fmt.Errorf("step %d: %w", i+1, err)
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "step %d: position reported\n", i+1)

				default:
					return fmt.Errorf("step %d: unknown kind %q", i+1, step.Kind)
				}

				if pace > 0 && i < len(script.Steps)-1 {
					time.Sleep(pace)
				}
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&pace, "pace", 0, "delay between steps (e.g. 2s)")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token from the configured JWT secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not configured")
			}

			token, err := middleware.IssueToken(cfg.JWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "workctl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}

func dateToMillis(date string) (int64, error) {
	t, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", date)
	}
	return t.UnixMilli(), nil
}
