package history

import (
	"fmt"

	"github.com/homestage-ai/staging-client/internal/app"
	"github.com/homestage-ai/staging-client/internal/config"
	"github.com/homestage-ai/staging-client/internal/db/models"

	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:   "history",
	Short: "List recent staging sessions",
	RunE:  runHistory,
}

func init() {
	Cmd.Flags().Int("limit", 20, "Maximum number of sessions to list")
	Cmd.Flags().Bool("images", false, "Also list the staged images of each session")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := config.MustGetConfig()

	limit, _ := cmd.Flags().GetInt("limit")
	withImages, _ := cmd.Flags().GetBool("images")

	a, err := app.NewApp(cfg, app.WithHistoryDB())
	if err != nil {
		return err
	}
	defer a.Close()

	sessions, err := a.SessionRepository.ListRecent(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("no staging sessions yet")
		return nil
	}

	for _, session := range sessions {
		line := fmt.Sprintf("%s  %s/%s  %s", session.ID, session.RoomType, session.StagingStyle, session.Status)
		if session.Status == models.SessionStatusFailed && session.ErrorCode != "" {
			line += " (" + session.ErrorCode + ")"
		}
		fmt.Println(line)

		if !withImages {
			continue
		}

		images, err := a.StagedImageRepository.ListBySessionID(cmd.Context(), session.ID.String())
		if err != nil {
			continue
		}
		for _, image := range images {
			location := image.Url
			if image.LocalPath != "" {
				location = image.LocalPath
			}
			fmt.Printf("    %s  %s\n", image.StagedID, location)
		}
	}

	return nil
}
