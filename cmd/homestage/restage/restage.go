package restage

import (
	"errors"
	"fmt"
	"os"

	"github.com/homestage-ai/staging-client/internal/app"
	"github.com/homestage-ai/staging-client/internal/auth"
	"github.com/homestage-ai/staging-client/internal/client"
	"github.com/homestage-ai/staging-client/internal/config"
	"github.com/homestage-ai/staging-client/internal/db/models"
	"github.com/homestage-ai/staging-client/internal/fingerprint"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Cmd = &cobra.Command{
	Use:   "restage <staged-id>",
	Short: "Refine an already-staged image",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestage,
}

func init() {
	flags := Cmd.Flags()

	flags.String("room", "", "Room type override")
	flags.String("style", "", "Staging style override")
	flags.String("prompt", "", "Freeform refinement prompt")
	flags.Bool("remove-furniture", false, "Remove existing furniture instead of adding")
}

func runRestage(cmd *cobra.Command, args []string) error {
	cfg := config.MustGetConfig()

	roomType, _ := cmd.Flags().GetString("room")
	stagingStyle, _ := cmd.Flags().GetString("style")
	prompt, _ := cmd.Flags().GetString("prompt")
	removeFurniture, _ := cmd.Flags().GetBool("remove-furniture")

	a, err := app.NewApp(cfg, app.WithHistoryDB())
	if err != nil {
		return err
	}
	defer a.Close()

	store := auth.NewStore(cfg.HomeDir)
	device := fingerprint.NewProvider(cfg.HomeDir)

	cl := client.New(cfg.APIBaseURL,
		client.WithTokenProvider(store.TokenProvider()),
		client.WithFingerprintProvider(device.GetOrCreate),
		client.WithLogger(a.Logger),
	)

	result, err := cl.Restage(cmd.Context(), client.RestageParams{
		StagedID:        args[0],
		RoomType:        roomType,
		StagingStyle:    stagingStyle,
		Prompt:          prompt,
		RemoveFurniture: removeFurniture,
	})
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintf(os.Stderr, "server rejected restage: %s\n", apiErr.Message)
		}
		return err
	}

	fmt.Printf("restaged: %s (%s)\n", result.StagedImageURL, result.StagedID)

	// Keep the refinement in the same session as the original when the
	// original is known locally.
	original, err := a.StagedImageRepository.GetByStagedID(cmd.Context(), args[0])
	if err == nil && original != nil {
		record := &models.StagedImage{
			ID:        uuid.New(),
			SessionID: original.SessionID,
			StagedID:  result.StagedID,
			Url:       result.StagedImageURL,
		}
		if _, err := a.StagedImageRepository.Create(cmd.Context(), record); err != nil {
			a.Logger.Warn("failed to record restaged image", zap.Error(err))
		}
	}

	return nil
}
