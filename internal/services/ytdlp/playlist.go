package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mpsync/internal/services"
)

type playlistDocument struct {
	ID      string           `json:"id"`
	Title   string           `json:"title"`
	Entries []*playlistEntry `json:"entries"`
}

type playlistEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Resolve returns the playlist's track identifiers in playlist order with
// duplicates removed.
func (c *Client) Resolve(ctx context.Context, playlistID string) ([]string, error) {
	playlistID = strings.TrimSpace(playlistID)
	if playlistID == "" {
		return nil, services.Wrap(services.ErrPlaylistResolution, "playlist", "resolve", "playlist id is empty", nil)
	}

	runCtx := ctx
	if c.settings.PlaylistTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.settings.PlaylistTimeout)
		defer cancel()
	}

	args := []string{
		"--flat-playlist",
		"-J",
		"--no-warnings",
		fmt.Sprintf(c.settings.PlaylistURLTemplate, playlistID),
	}
	out, err := c.exec.Output(runCtx, c.settings.Binary, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, services.Wrap(services.ErrPlaylistResolution, "playlist", playlistID, "yt-dlp", err)
	}
	ids, err := parsePlaylist(out)
	if err != nil {
		return nil, services.Wrap(services.ErrPlaylistResolution, "playlist", playlistID, "parse yt-dlp output", err)
	}
	return ids, nil
}

func parsePlaylist(data []byte) ([]string, error) {
	var doc playlistDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(doc.Entries))
	seen := make(map[string]struct{}, len(doc.Entries))
	for _, entry := range doc.Entries {
		if entry == nil {
			continue
		}
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
