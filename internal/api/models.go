package api

import "fmt"

// Fields requested for every anime or manga node.
const (
	MediaFields = "id,title,main_picture,alternative_titles,start_date,end_date,synopsis,mean,rank," +
		"popularity,num_list_users,num_scoring_users,nsfw,genres,created_at,updated_at,media_type,status," +
		"my_list_status,num_episodes,start_season,broadcast,source,average_episode_duration,rating," +
		"background,studios,num_volumes,num_chapters,authors{first_name,last_name}"
	UserFields = "id,name,picture,gender,birthday,location,joined_at,anime_statistics,time_zone,is_supporter"
)

type Picture struct {
	Large  string `json:"large,omitempty"`
	Medium string `json:"medium,omitempty"`
}

type AlternativeTitles struct {
	Synonyms []string `json:"synonyms,omitempty"`
	En       string   `json:"en,omitempty"`
	Ja       string   `json:"ja,omitempty"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Studio struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type AnimeSeason struct {
	Year   int    `json:"year"`
	Season Season `json:"season"`
}

func (s AnimeSeason) String() string {
	return fmt.Sprintf("%s %d", s.Season.Label(), s.Year)
}

type Broadcast struct {
	DayOfTheWeek string `json:"day_of_the_week"`
	StartTime    string `json:"start_time,omitempty"`
}

type AnimeListStatus struct {
	Status             WatchStatus `json:"status"`
	Score              int         `json:"score"`
	NumEpisodesWatched int         `json:"num_episodes_watched"`
	IsRewatching       bool        `json:"is_rewatching"`
	StartDate          string      `json:"start_date,omitempty"`
	FinishDate         string      `json:"finish_date,omitempty"`
	UpdatedAt          string      `json:"updated_at,omitempty"`
}

type MangaListStatus struct {
	Status          ReadStatus `json:"status"`
	Score           int        `json:"score"`
	NumVolumesRead  int        `json:"num_volumes_read"`
	NumChaptersRead int        `json:"num_chapters_read"`
	IsRereading     bool       `json:"is_rereading"`
	StartDate       string     `json:"start_date,omitempty"`
	FinishDate      string     `json:"finish_date,omitempty"`
	UpdatedAt       string     `json:"updated_at,omitempty"`
}

type Anime struct {
	ID                     int                `json:"id"`
	Title                  string             `json:"title"`
	MainPicture            *Picture           `json:"main_picture,omitempty"`
	AlternativeTitles      *AlternativeTitles `json:"alternative_titles,omitempty"`
	StartDate              string             `json:"start_date,omitempty"`
	EndDate                string             `json:"end_date,omitempty"`
	Synopsis               string             `json:"synopsis,omitempty"`
	Background             string             `json:"background,omitempty"`
	Mean                   float64            `json:"mean,omitempty"`
	Rank                   int                `json:"rank,omitempty"`
	Popularity             int                `json:"popularity,omitempty"`
	NumListUsers           int                `json:"num_list_users,omitempty"`
	NumScoringUsers        int                `json:"num_scoring_users,omitempty"`
	NSFW                   NSFW               `json:"nsfw,omitempty"`
	Genres                 []Genre            `json:"genres,omitempty"`
	MediaType              AnimeMediaType     `json:"media_type,omitempty"`
	Status                 AnimeStatus        `json:"status,omitempty"`
	MyListStatus           *AnimeListStatus   `json:"my_list_status,omitempty"`
	NumEpisodes            int                `json:"num_episodes,omitempty"`
	StartSeason            *AnimeSeason       `json:"start_season,omitempty"`
	Broadcast              *Broadcast         `json:"broadcast,omitempty"`
	Source                 string             `json:"source,omitempty"`
	AverageEpisodeDuration int                `json:"average_episode_duration,omitempty"`
	Rating                 string             `json:"rating,omitempty"`
	Studios                []Studio           `json:"studios,omitempty"`
}

// DisplayTitle returns the English title when english is set and one exists.
func (a Anime) DisplayTitle(english bool) string {
	return displayTitle(a.Title, a.AlternativeTitles, english)
}

type Person struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type Author struct {
	Node Person `json:"node"`
	Role string `json:"role"`
}

type Manga struct {
	ID                int                `json:"id"`
	Title             string             `json:"title"`
	MainPicture       *Picture           `json:"main_picture,omitempty"`
	AlternativeTitles *AlternativeTitles `json:"alternative_titles,omitempty"`
	StartDate         string             `json:"start_date,omitempty"`
	EndDate           string             `json:"end_date,omitempty"`
	Synopsis          string             `json:"synopsis,omitempty"`
	Background        string             `json:"background,omitempty"`
	Mean              float64            `json:"mean,omitempty"`
	Rank              int                `json:"rank,omitempty"`
	Popularity        int                `json:"popularity,omitempty"`
	NumListUsers      int                `json:"num_list_users,omitempty"`
	NumScoringUsers   int                `json:"num_scoring_users,omitempty"`
	NSFW              NSFW               `json:"nsfw,omitempty"`
	Genres            []Genre            `json:"genres,omitempty"`
	MediaType         MangaMediaType     `json:"media_type,omitempty"`
	Status            MangaStatus        `json:"status,omitempty"`
	MyListStatus      *MangaListStatus   `json:"my_list_status,omitempty"`
	NumVolumes        int                `json:"num_volumes,omitempty"`
	NumChapters       int                `json:"num_chapters,omitempty"`
	Authors           []Author           `json:"authors,omitempty"`
}

func (m Manga) DisplayTitle(english bool) string {
	return displayTitle(m.Title, m.AlternativeTitles, english)
}

func displayTitle(title string, alt *AlternativeTitles, english bool) string {
	if english && alt != nil && alt.En != "" {
		return alt.En
	}
	return title
}

type AnimeStatistics struct {
	NumItemsWatching    int     `json:"num_items_watching"`
	NumItemsCompleted   int     `json:"num_items_completed"`
	NumItemsOnHold      int     `json:"num_items_on_hold"`
	NumItemsDropped     int     `json:"num_items_dropped"`
	NumItemsPlanToWatch int     `json:"num_items_plan_to_watch"`
	NumItems            int     `json:"num_items"`
	NumDaysWatched      float64 `json:"num_days_watched"`
	NumEpisodes         int     `json:"num_episodes"`
	NumTimesRewatched   int     `json:"num_times_rewatched"`
	MeanScore           float64 `json:"mean_score"`
}

type UserInfo struct {
	ID              int              `json:"id"`
	Name            string           `json:"name"`
	Picture         string           `json:"picture,omitempty"`
	Gender          string           `json:"gender,omitempty"`
	Birthday        string           `json:"birthday,omitempty"`
	Location        string           `json:"location,omitempty"`
	JoinedAt        string           `json:"joined_at,omitempty"`
	AnimeStatistics *AnimeStatistics `json:"anime_statistics,omitempty"`
	TimeZone        string           `json:"time_zone,omitempty"`
	IsSupporter     bool             `json:"is_supporter,omitempty"`
}

type Paging struct {
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
}

type Node[T any] struct {
	Node T `json:"node"`
}

// Page is a list of nodes as returned by search, seasonal, suggestion and
// user list endpoints.
type Page[T any] struct {
	Data   []Node[T] `json:"data"`
	Paging Paging    `json:"paging"`
}

// Items flattens the node wrappers.
func (p Page[T]) Items() []T {
	items := make([]T, len(p.Data))
	for i, n := range p.Data {
		items[i] = n.Node
	}
	return items
}

type RankingInfo struct {
	Rank         int `json:"rank"`
	PreviousRank int `json:"previous_rank,omitempty"`
}

type Ranked[T any] struct {
	Node    T           `json:"node"`
	Ranking RankingInfo `json:"ranking"`
}

type Ranking[T any] struct {
	Data   []Ranked[T] `json:"data"`
	Paging Paging      `json:"paging"`
}

// SeasonalPage is a Page with the season the catalog resolved the query to.
type SeasonalPage struct {
	Page[Anime]
	Season AnimeSeason `json:"season"`
}
