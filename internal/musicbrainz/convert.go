package musicbrainz

import (
	"strings"

	"crate/internal/catalog"
)

// Wire payloads mirror the upstream JSON shapes. Conversion into catalog
// types happens here and nowhere else.

type releaseGroupPayload struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	PrimaryType      string        `json:"primary-type"`
	FirstReleaseDate string        `json:"first-release-date"`
	ArtistCredit     []artistCred  `json:"artist-credit"`
	Tags             []catalog.Tag `json:"tags"`
}

type artistCred struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase"`
}

type browsePayload struct {
	Releases []releasePayload `json:"releases"`
}

type releasePayload struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Status       string        `json:"status"`
	Date         string        `json:"date"`
	Country      string        `json:"country"`
	TrackCount   int           `json:"track-count"`
	LabelInfo    []labelInfo   `json:"label-info"`
	Media        []medium      `json:"media"`
	ReleaseGroup *groupRef     `json:"release-group"`
	Tags         []catalog.Tag `json:"tags"`
}

type groupRef struct {
	ID string `json:"id"`
}

type labelInfo struct {
	Label struct {
		Name string `json:"name"`
	} `json:"label"`
}

type medium struct {
	TrackCount int         `json:"track-count"`
	Tracks     []trackWire `json:"tracks"`
}

type trackWire struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Length   int    `json:"length"`
}

type linkPayload struct {
	URL      string `json:"url"`
	Verified bool   `json:"verified"`
}

func (p releaseGroupPayload) toAlbum() catalog.Album {
	return catalog.Album{
		ID:               p.ID,
		Title:            p.Title,
		Artist:           joinArtistCredit(p.ArtistCredit),
		Type:             strings.ToLower(p.PrimaryType),
		FirstReleaseDate: p.FirstReleaseDate,
		Tags:             p.Tags,
	}
}

// toRelease converts a wire release. albumID wins over the embedded group
// reference when supplied (browse responses omit the group).
func (p releasePayload) toRelease(albumID string) catalog.Release {
	if albumID == "" && p.ReleaseGroup != nil {
		albumID = p.ReleaseGroup.ID
	}
	release := catalog.Release{
		ID:         p.ID,
		AlbumID:    albumID,
		Title:      p.Title,
		Status:     p.Status,
		Date:       p.Date,
		Country:    p.Country,
		TrackCount: p.TrackCount,
		Tags:       p.Tags,
	}
	if len(p.LabelInfo) > 0 {
		release.Label = p.LabelInfo[0].Label.Name
	}
	if release.TrackCount == 0 {
		for _, m := range p.Media {
			release.TrackCount += m.TrackCount
		}
	}
	for _, m := range p.Media {
		for _, t := range m.Tracks {
			release.Tracks = append(release.Tracks, catalog.Track{
				Position: t.Position,
				Title:    t.Title,
				LengthMS: t.Length,
			})
		}
	}
	return release
}

func joinArtistCredit(credits []artistCred) string {
	var sb strings.Builder
	for _, credit := range credits {
		sb.WriteString(credit.Name)
		sb.WriteString(credit.JoinPhrase)
	}
	return sb.String()
}
