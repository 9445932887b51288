package stage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/homestage-ai/staging-client/internal/app"
	"github.com/homestage-ai/staging-client/internal/auth"
	"github.com/homestage-ai/staging-client/internal/client"
	"github.com/homestage-ai/staging-client/internal/config"
	"github.com/homestage-ai/staging-client/internal/db/models"
	"github.com/homestage-ai/staging-client/internal/fingerprint"
	"github.com/homestage-ai/staging-client/internal/services/downloader"
	"github.com/homestage-ai/staging-client/internal/types"
	"github.com/homestage-ai/staging-client/internal/utils/imageutil"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbauerster/mpb/v7"
	"go.uber.org/zap"
)

var Cmd = &cobra.Command{
	Use:   "stage <image>",
	Short: "Stage a room photo",
	Long:  "Upload a photo, stream staged variants as they are generated, and save the results",
	Args:  cobra.ExactArgs(1),
	RunE:  runStage,
}

func init() {
	flags := Cmd.Flags()

	flags.String("room", types.DefaultRoomType, "Room type of the photo")
	flags.String("style", types.DefaultStagingStyle, "Staging style to apply")
	flags.String("prompt", "", "Freeform refinement prompt")
	flags.Bool("remove-furniture", false, "Remove existing furniture instead of adding")
	flags.String("team", "", "Team id for billing")
	flags.String("project", "", "Project id for organization")
	flags.Bool("no-download", false, "Skip downloading the staged results")

	viper.BindPFlag("room", flags.Lookup("room"))
	viper.BindPFlag("style", flags.Lookup("style"))
}

func runStage(cmd *cobra.Command, args []string) error {
	cfg := config.MustGetConfig()

	roomType, _ := cmd.Flags().GetString("room")
	stagingStyle, _ := cmd.Flags().GetString("style")
	prompt, _ := cmd.Flags().GetString("prompt")
	removeFurniture, _ := cmd.Flags().GetBool("remove-furniture")
	teamID, _ := cmd.Flags().GetString("team")
	projectID, _ := cmd.Flags().GetString("project")
	noDownload, _ := cmd.Flags().GetBool("no-download")

	if !types.IsValidRoomType(roomType) {
		return fmt.Errorf("unknown room type %q", roomType)
	}
	if !types.IsValidStagingStyle(stagingStyle) {
		return fmt.Errorf("unknown staging style %q", stagingStyle)
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	payload, _, err := imageutil.PrepareUpload(raw, imageutil.DefaultMaxEdge)
	if err != nil {
		return err
	}

	progress := mpb.New(
		mpb.WithWidth(60),
		mpb.WithRefreshRate(180*time.Millisecond),
	)

	a, err := app.NewApp(cfg,
		app.WithHistoryDB(),
		app.WithDownloader(downloader.WithProgress(progress)),
	)
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

	req := client.GenerationRequest{
		Image:           payload,
		Filename:        filepath.Base(args[0]),
		RoomType:        roomType,
		StagingStyle:    stagingStyle,
		Prompt:          prompt,
		RemoveFurniture: removeFurniture,
		TeamID:          teamID,
		ProjectID:       projectID,
	}

	var (
		images  []client.ImageEvent
		lastErr *client.ErrorEvent
	)
	done := make(chan struct{})

	cl.Start(cmd.Context(), req, client.Handlers{
		OnImage: func(ev client.ImageEvent) {
			images = append(images, ev)
			fmt.Printf("staged: %s (%s)\n", ev.StagedImageURL, ev.StagedID)
			if ev.IsDemo != nil && *ev.IsDemo && ev.DemoCount != nil && ev.DemoLimit != nil {
				fmt.Printf("demo mode: %d of %d free generations used\n", *ev.DemoCount, *ev.DemoLimit)
			}
		},
		OnError: func(ev client.ErrorEvent) {
			lastErr = &ev
			fmt.Fprintf(os.Stderr, "error: %s (%s)\n", ev.Message, ev.Code)
		},
		OnDone: func() {
			close(done)
		},
	})

	<-done

	status := models.SessionStatusCompleted
	session := &models.Session{
		ID:           uuid.New(),
		RoomType:     roomType,
		StagingStyle: stagingStyle,
		Prompt:       prompt,
		TeamID:       teamID,
		ProjectID:    projectID,
	}
	if lastErr != nil && len(images) == 0 {
		status = models.SessionStatusFailed
		session.ErrorCode = lastErr.Code
		session.ErrorMessage = lastErr.Message
	}
	session.Status = status

	if _, err := a.SessionRepository.Create(cmd.Context(), session); err != nil {
		a.Logger.Warn("failed to record session", zap.Error(err))
	}

	var localPaths map[string]string
	if !noDownload && len(images) > 0 {
		urls := make([]string, len(images))
		for i, ev := range images {
			urls[i] = ev.StagedImageURL
		}

		var fetchErr error
		localPaths, fetchErr = a.Downloader().FetchAll(cmd.Context(), urls)
		progress.Wait()
		if fetchErr != nil {
			fmt.Fprintf(os.Stderr, "some downloads failed: %v\n", fetchErr)
		}
	}

	for _, ev := range images {
		record := &models.StagedImage{
			ID:        uuid.New(),
			SessionID: session.ID,
			StagedID:  ev.StagedID,
			Url:       ev.StagedImageURL,
			LocalPath: localPaths[ev.StagedImageURL],
			IsDemo:    ev.IsDemo != nil && *ev.IsDemo,
		}
		if _, err := a.StagedImageRepository.Create(cmd.Context(), record); err != nil {
			a.Logger.Warn("failed to record staged image", zap.Error(err))
		}
	}

	if lastErr != nil && len(images) == 0 {
		return fmt.Errorf("staging failed: %s", lastErr.Message)
	}

	fmt.Printf("%d staged image(s)\n", len(images))
	return nil
}
