package api

import (
	"slices"
	"strings"
	"time"
)

// Classification values are kept as their raw wire strings. A value the
// catalog adds later decodes untouched and reports Known() == false.

type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
)

var Seasons = []Season{SeasonWinter, SeasonSpring, SeasonSummer, SeasonFall}

func (s Season) Known() bool { return slices.Contains(Seasons, s) }
func (s Season) Label() string { return titleCase(string(s)) }

// SeasonOf returns the broadcast season containing month.
func SeasonOf(month time.Month) Season {
	switch month {
	case time.January, time.February, time.March:
		return SeasonWinter
	case time.April, time.May, time.June:
		return SeasonSpring
	case time.July, time.August, time.September:
		return SeasonSummer
	default:
		return SeasonFall
	}
}

type AnimeMediaType string

const (
	AnimeMediaUnknown AnimeMediaType = "unknown"
	AnimeMediaTV      AnimeMediaType = "tv"
	AnimeMediaOVA     AnimeMediaType = "ova"
	AnimeMediaMovie   AnimeMediaType = "movie"
	AnimeMediaSpecial AnimeMediaType = "special"
	AnimeMediaONA     AnimeMediaType = "ona"
	AnimeMediaMusic   AnimeMediaType = "music"
)

func (m AnimeMediaType) Known() bool {
	return slices.Contains([]AnimeMediaType{
		AnimeMediaUnknown, AnimeMediaTV, AnimeMediaOVA, AnimeMediaMovie,
		AnimeMediaSpecial, AnimeMediaONA, AnimeMediaMusic,
	}, m)
}

func (m AnimeMediaType) Label() string {
	switch m {
	case AnimeMediaTV, AnimeMediaOVA, AnimeMediaONA:
		return strings.ToUpper(string(m))
	}
	return titleCase(string(m))
}

type AnimeStatus string

const (
	AnimeFinishedAiring  AnimeStatus = "finished_airing"
	AnimeCurrentlyAiring AnimeStatus = "currently_airing"
	AnimeNotYetAired     AnimeStatus = "not_yet_aired"
)

func (s AnimeStatus) Known() bool {
	return s == AnimeFinishedAiring || s == AnimeCurrentlyAiring || s == AnimeNotYetAired
}
func (s AnimeStatus) Label() string { return titleCase(string(s)) }

type MangaMediaType string

const (
	MangaMediaUnknown   MangaMediaType = "unknown"
	MangaMediaManga     MangaMediaType = "manga"
	MangaMediaNovel     MangaMediaType = "novel"
	MangaMediaOneShot   MangaMediaType = "one_shot"
	MangaMediaDoujinshi MangaMediaType = "doujinshi"
	MangaMediaManhwa    MangaMediaType = "manhwa"
	MangaMediaManhua    MangaMediaType = "manhua"
	MangaMediaOEL       MangaMediaType = "oel"
)

func (m MangaMediaType) Known() bool {
	return slices.Contains([]MangaMediaType{
		MangaMediaUnknown, MangaMediaManga, MangaMediaNovel, MangaMediaOneShot,
		MangaMediaDoujinshi, MangaMediaManhwa, MangaMediaManhua, MangaMediaOEL,
	}, m)
}

func (m MangaMediaType) Label() string {
	if m == MangaMediaOEL {
		return "OEL"
	}
	return titleCase(string(m))
}

type MangaStatus string

const (
	MangaFinished            MangaStatus = "finished"
	MangaCurrentlyPublishing MangaStatus = "currently_publishing"
	MangaNotYetPublished     MangaStatus = "not_yet_published"
)

func (s MangaStatus) Known() bool {
	return s == MangaFinished || s == MangaCurrentlyPublishing || s == MangaNotYetPublished
}
func (s MangaStatus) Label() string { return titleCase(string(s)) }

type NSFW string

const (
	NSFWWhite NSFW = "white"
	NSFWGray  NSFW = "gray"
	NSFWBlack NSFW = "black"
)

func (n NSFW) Known() bool { return n == NSFWWhite || n == NSFWGray || n == NSFWBlack }

// WatchStatus is the state of an anime on the user's list.
type WatchStatus string

const (
	WatchWatching    WatchStatus = "watching"
	WatchCompleted   WatchStatus = "completed"
	WatchOnHold      WatchStatus = "on_hold"
	WatchDropped     WatchStatus = "dropped"
	WatchPlanToWatch WatchStatus = "plan_to_watch"
)

var WatchStatuses = []WatchStatus{WatchWatching, WatchCompleted, WatchOnHold, WatchDropped, WatchPlanToWatch}

func (s WatchStatus) Known() bool { return slices.Contains(WatchStatuses, s) }
func (s WatchStatus) Label() string { return titleCase(string(s)) }
func (s WatchStatus) Next() WatchStatus     { return cycle(WatchStatuses, s, 1) }
func (s WatchStatus) Previous() WatchStatus { return cycle(WatchStatuses, s, -1) }

// ReadStatus is the state of a manga on the user's list.
type ReadStatus string

const (
	ReadReading    ReadStatus = "reading"
	ReadCompleted  ReadStatus = "completed"
	ReadOnHold     ReadStatus = "on_hold"
	ReadDropped    ReadStatus = "dropped"
	ReadPlanToRead ReadStatus = "plan_to_read"
)

var ReadStatuses = []ReadStatus{ReadReading, ReadCompleted, ReadOnHold, ReadDropped, ReadPlanToRead}

func (s ReadStatus) Known() bool { return slices.Contains(ReadStatuses, s) }
func (s ReadStatus) Label() string { return titleCase(string(s)) }
func (s ReadStatus) Next() ReadStatus     { return cycle(ReadStatuses, s, 1) }
func (s ReadStatus) Previous() ReadStatus { return cycle(ReadStatuses, s, -1) }

type AnimeRankingType string

const (
	AnimeRankAll        AnimeRankingType = "all"
	AnimeRankAiring     AnimeRankingType = "airing"
	AnimeRankUpcoming   AnimeRankingType = "upcoming"
	AnimeRankMovie      AnimeRankingType = "movie"
	AnimeRankPopularity AnimeRankingType = "bypopularity"
	AnimeRankSpecial    AnimeRankingType = "special"
	AnimeRankTV         AnimeRankingType = "tv"
	AnimeRankOVA        AnimeRankingType = "ova"
	AnimeRankFavorite   AnimeRankingType = "favorite"
)

var AnimeRankingTypes = []AnimeRankingType{
	AnimeRankAll, AnimeRankAiring, AnimeRankUpcoming, AnimeRankMovie, AnimeRankPopularity,
	AnimeRankSpecial, AnimeRankTV, AnimeRankOVA, AnimeRankFavorite,
}

func (r AnimeRankingType) Known() bool { return slices.Contains(AnimeRankingTypes, r) }
func (r AnimeRankingType) Next() AnimeRankingType     { return cycle(AnimeRankingTypes, r, 1) }
func (r AnimeRankingType) Previous() AnimeRankingType { return cycle(AnimeRankingTypes, r, -1) }

func (r AnimeRankingType) Label() string {
	switch r {
	case AnimeRankPopularity:
		return "Popularity"
	case AnimeRankTV, AnimeRankOVA:
		return strings.ToUpper(string(r))
	}
	return titleCase(string(r))
}

type MangaRankingType string

const (
	MangaRankAll        MangaRankingType = "all"
	MangaRankManga      MangaRankingType = "manga"
	MangaRankManhwa     MangaRankingType = "manhwa"
	MangaRankPopularity MangaRankingType = "bypopularity"
	MangaRankNovels     MangaRankingType = "novels"
	MangaRankOneShots   MangaRankingType = "oneshots"
	MangaRankDoujin     MangaRankingType = "doujin"
	MangaRankManhua     MangaRankingType = "manhua"
	MangaRankFavorite   MangaRankingType = "favorite"
)

var MangaRankingTypes = []MangaRankingType{
	MangaRankAll, MangaRankManga, MangaRankManhwa, MangaRankPopularity, MangaRankNovels,
	MangaRankOneShots, MangaRankDoujin, MangaRankManhua, MangaRankFavorite,
}

func (r MangaRankingType) Known() bool { return slices.Contains(MangaRankingTypes, r) }
func (r MangaRankingType) Next() MangaRankingType     { return cycle(MangaRankingTypes, r, 1) }
func (r MangaRankingType) Previous() MangaRankingType { return cycle(MangaRankingTypes, r, -1) }

func (r MangaRankingType) Label() string {
	if r == MangaRankPopularity {
		return "Popularity"
	}
	return titleCase(string(r))
}

type SortStyle string

const (
	SortListScore      SortStyle = "list_score"
	SortListUpdatedAt  SortStyle = "list_updated_at"
	SortAnimeTitle     SortStyle = "anime_title"
	SortAnimeStartDate SortStyle = "anime_start_date"
)

// RatingLabels indexes the 0..10 score scale.
var RatingLabels = [11]string{
	"None",
	"(1) Appalling",
	"(2) Horrible",
	"(3) Very Bad",
	"(4) Bad",
	"(5) Average",
	"(6) Fine",
	"(7) Good",
	"(8) Very Good",
	"(9) Great",
	"(10) Masterpiece",
}

// cycle steps through values, wrapping at both ends. An unrecognized value
// restarts from the first entry.
func cycle[T comparable](values []T, cur T, step int) T {
	i := slices.Index(values, cur)
	if i < 0 {
		return values[0]
	}
	n := len(values)
	return values[((i+step)%n+n)%n]
}

func titleCase(raw string) string {
	words := strings.Fields(strings.ReplaceAll(raw, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
