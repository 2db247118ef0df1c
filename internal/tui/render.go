package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/kiroku/internal/api"
	"github.com/pders01/kiroku/internal/app"
	"github.com/pders01/kiroku/internal/nav"
)

// detailMarkdown renders the detail and profile views as markdown for
// glamour. Other data renders as an empty string.
func detailMarkdown(data nav.Data, english bool) string {
	switch d := data.(type) {
	case nav.AnimeDetail:
		return animeMarkdown(d.Anime, english)
	case nav.MangaDetail:
		return mangaMarkdown(d.Manga, english)
	case nav.UserProfile:
		return profileMarkdown(d.User)
	}
	return ""
}

func animeMarkdown(a api.Anime, english bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", a.DisplayTitle(english))
	if alt := altTitle(a.Title, a.AlternativeTitles, english); alt != "" {
		fmt.Fprintf(&b, "*%s*\n\n", alt)
	}

	facts := [][2]string{
		{"Type", a.MediaType.Label()},
		{"Status", a.Status.Label()},
		{"Episodes", count(a.NumEpisodes)},
		{"Score", score(a.Mean, a.NumScoringUsers)},
		{"Rank", rank(a.Rank)},
		{"Popularity", rank(a.Popularity)},
		{"Aired", dates(a.StartDate, a.EndDate)},
		{"Studios", studios(a.Studios)},
		{"Genres", genres(a.Genres)},
		{"Source", a.Source},
	}
	if a.StartSeason != nil {
		facts = append(facts, [2]string{"Season", a.StartSeason.String()})
	}
	writeFacts(&b, facts)

	if s := a.MyListStatus; s != nil && s.Status != "" {
		b.WriteString("## My list\n\n")
		writeFacts(&b, [][2]string{
			{"Status", s.Status.Label()},
			{"Score", api.RatingLabels[clampScore(s.Score)]},
			{"Progress", listProgress("", s.NumEpisodesWatched, a.NumEpisodes)},
		})
	}

	writeSection(&b, "Synopsis", a.Synopsis)
	writeSection(&b, "Background", a.Background)
	return b.String()
}

func mangaMarkdown(m api.Manga, english bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.DisplayTitle(english))
	if alt := altTitle(m.Title, m.AlternativeTitles, english); alt != "" {
		fmt.Fprintf(&b, "*%s*\n\n", alt)
	}

	writeFacts(&b, [][2]string{
		{"Type", m.MediaType.Label()},
		{"Status", m.Status.Label()},
		{"Volumes", count(m.NumVolumes)},
		{"Chapters", count(m.NumChapters)},
		{"Score", score(m.Mean, m.NumScoringUsers)},
		{"Rank", rank(m.Rank)},
		{"Popularity", rank(m.Popularity)},
		{"Published", dates(m.StartDate, m.EndDate)},
		{"Authors", authors(m.Authors)},
		{"Genres", genres(m.Genres)},
	})

	if s := m.MyListStatus; s != nil && s.Status != "" {
		b.WriteString("## My list\n\n")
		writeFacts(&b, [][2]string{
			{"Status", s.Status.Label()},
			{"Score", api.RatingLabels[clampScore(s.Score)]},
			{"Progress", listProgress("", s.NumChaptersRead, m.NumChapters)},
		})
	}

	writeSection(&b, "Synopsis", m.Synopsis)
	writeSection(&b, "Background", m.Background)
	return b.String()
}

func profileMarkdown(u api.UserInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", u.Name)
	writeFacts(&b, [][2]string{
		{"Joined", u.JoinedAt},
		{"Location", u.Location},
		{"Gender", u.Gender},
		{"Birthday", u.Birthday},
		{"Time zone", u.TimeZone},
	})
	if s := u.AnimeStatistics; s != nil {
		b.WriteString("## Anime statistics\n\n")
		writeFacts(&b, [][2]string{
			{"Watching", fmt.Sprint(s.NumItemsWatching)},
			{"Completed", fmt.Sprint(s.NumItemsCompleted)},
			{"On hold", fmt.Sprint(s.NumItemsOnHold)},
			{"Dropped", fmt.Sprint(s.NumItemsDropped)},
			{"Plan to watch", fmt.Sprint(s.NumItemsPlanToWatch)},
			{"Total", fmt.Sprint(s.NumItems)},
			{"Episodes", fmt.Sprint(s.NumEpisodes)},
			{"Days watched", fmt.Sprintf("%.1f", s.NumDaysWatched)},
			{"Mean score", fmt.Sprintf("%.2f", s.MeanScore)},
		})
	}
	return b.String()
}

// writeFacts writes a two-column table, skipping empty values.
func writeFacts(b *strings.Builder, facts [][2]string) {
	rows := 0
	for _, f := range facts {
		if f[1] == "" {
			continue
		}
		if rows == 0 {
			b.WriteString("| | |\n|---|---|\n")
		}
		fmt.Fprintf(b, "| **%s** | %s |\n", f[0], escapeCell(f[1]))
		rows++
	}
	if rows > 0 {
		b.WriteString("\n")
	}
}

func writeSection(b *strings.Builder, heading, text string) {
	if text = strings.TrimSpace(text); text == "" {
		return
	}
	fmt.Fprintf(b, "## %s\n\n%s\n\n", heading, text)
}

func escapeCell(s string) string { return strings.ReplaceAll(s, "|", `\|`) }

func altTitle(title string, alt *api.AlternativeTitles, english bool) string {
	if alt == nil {
		return ""
	}
	if english && alt.En != "" && alt.En != title {
		return title
	}
	if !english && alt.En != "" && alt.En != title {
		return alt.En
	}
	return ""
}

func count(n int) string {
	if n <= 0 {
		return "?"
	}
	return fmt.Sprint(n)
}

func score(mean float64, users int) string {
	if mean <= 0 {
		return ""
	}
	if users > 0 {
		return fmt.Sprintf("%.2f (%d users)", mean, users)
	}
	return fmt.Sprintf("%.2f", mean)
}

func rank(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("#%d", n)
}

func dates(start, end string) string {
	switch {
	case start == "":
		return ""
	case end == "":
		return start + " to ?"
	}
	return start + " to " + end
}

func studios(s []api.Studio) string {
	names := make([]string, len(s))
	for i, st := range s {
		names[i] = st.Name
	}
	return strings.Join(names, ", ")
}

func genres(g []api.Genre) string {
	names := make([]string, len(g))
	for i, gn := range g {
		names[i] = gn.Name
	}
	return strings.Join(names, ", ")
}

func authors(a []api.Author) string {
	names := make([]string, 0, len(a))
	for _, au := range a {
		name := strings.TrimSpace(au.Node.FirstName + " " + au.Node.LastName)
		if au.Role != "" {
			name += " (" + au.Role + ")"
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func clampScore(s int) int {
	return max(0, min(s, len(api.RatingLabels)-1))
}

// renderPopup draws the open popup as a centered box.
func (t Theme) renderPopup(p app.Popup, width int) string {
	var heading string
	switch p.Kind {
	case app.PopupAddToList:
		heading = "List status"
	case app.PopupRate:
		heading = "Rate"
	case app.PopupProgress:
		heading = "Progress"
	case app.PopupSeason:
		heading = "Season"
	}

	rows := []string{t.Header.Render(heading)}
	if p.Title != "" {
		rows = append(rows, t.MutedText.Render(truncateEnd(p.Title, max(width-10, 10))))
	}
	rows = append(rows, "")

	if opts := p.Options(); len(opts) > 0 {
		for i, o := range opts {
			if i == p.Selected {
				rows = append(rows, t.Selected.Render("› "+o))
			} else {
				rows = append(rows, "  "+o)
			}
		}
	} else {
		rows = append(rows, t.Highlight.Render("‹ "+p.Value()+" ›"))
	}

	return t.Popup.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
