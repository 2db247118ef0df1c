package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/pders01/kiroku/internal/config"
)

// keyMap is built from the configured bindings. Jump keys use the
// configured modifier.
type keyMap struct {
	Quit        key.Binding
	Search      key.Binding
	Find        key.Binding
	Back        key.Binding
	Forward     key.Binding
	Help        key.Binding
	Open        key.Binding
	Select      key.Binding
	AddToList   key.Binding
	Rate        key.Binding
	Progress    key.Binding
	Season      key.Binding
	Delete      key.Binding
	NextStatus  key.Binding
	PrevStatus  key.Binding
	NextRanking key.Binding
	PrevRanking key.Binding

	Seasonal    key.Binding
	Suggestions key.Binding
	TopAnime    key.Binding
	TopManga    key.Binding
	AnimeList   key.Binding
	MangaList   key.Binding
	Profile     key.Binding
	RefreshNews key.Binding

	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
}

func newKeyMap(cfg config.KeyConfig) keyMap {
	b := cfg.Bindings
	mod := cfg.Modifier + "+"
	bind := func(help string, keys ...string) key.Binding {
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], help))
	}

	return keyMap{
		Quit:        bind("quit", b.Quit, "ctrl+c"),
		Search:      bind("search", b.Search),
		Find:        bind("find", b.Find),
		Back:        bind("back", b.Back),
		Forward:     bind("forward", b.Forward),
		Help:        bind("help", b.Help),
		Open:        bind("open in browser", b.Open),
		Select:      bind("select", "enter"),
		AddToList:   bind("list status", b.AddToList),
		Rate:        bind("rate", b.Rate),
		Progress:    bind("progress", b.Progress),
		Season:      bind("season", b.Season),
		Delete:      bind("remove from list", b.Delete),
		NextStatus:  bind("next status", b.NextStatus),
		PrevStatus:  bind("prev status", b.PrevStatus),
		NextRanking: bind("next ranking", b.NextRanking),
		PrevRanking: bind("prev ranking", "shift+"+b.NextRanking),

		Seasonal:    bind("this season", mod+"n"),
		Suggestions: bind("suggestions", mod+"u"),
		TopAnime:    bind("top anime", mod+"t"),
		TopManga:    bind("top manga", mod+"g"),
		AnimeList:   bind("my anime", mod+"l"),
		MangaList:   bind("my manga", mod+"b"),
		Profile:     bind("profile", mod+"p"),
		RefreshNews: bind("refresh news", mod+"r"),

		Up:    bind("up", "up", "k"),
		Down:  bind("down", "down", "j"),
		Left:  bind("left", "left", "h"),
		Right: bind("right", "right", "l"),
	}
}

// ShortHelp is shown in the status bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Back, k.Forward, k.Help, k.Quit}
}

// FullHelp is the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Find, k.Select, k.Back, k.Forward, k.Open, k.Help, k.Quit},
		{k.AddToList, k.Rate, k.Progress, k.Delete, k.Season, k.NextStatus, k.PrevStatus, k.NextRanking},
		{k.Seasonal, k.Suggestions, k.TopAnime, k.TopManga, k.AnimeList, k.MangaList, k.Profile, k.RefreshNews},
	}
}

// popupHelp is the short help while a popup is open.
func (k keyMap) popupHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		key.NewBinding(key.WithKeys("arrows"), key.WithHelp("←↑↓→", "change")),
		key.NewBinding(key.WithKeys(k.Back.Keys()...), key.WithHelp(k.Back.Help().Key, "cancel")),
	}
}
