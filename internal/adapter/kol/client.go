// Package kol is the screen-scraping transport against the game server.
// Pages come back as raw HTML; an empty string is the transient-failure
// sentinel and never an error in itself.
package kol

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/loathers/cagebot/internal/domain/sewer"
)

const defaultBaseURL = "https://www.kingdomofloathing.com"

// The game attributes api traffic to this string.
const forIdentifier = "Cagesitter (Maintained by Phillammon)"

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrRollover    = errors.New("rollover in progress")
)

var (
	rolloverPageRE   = regexp.MustCompile(`The system is currently down for nightly maintenance`)
	myClanRE         = regexp.MustCompile(`<b><a class=nounder href="showclan\.php\?whichclan=(\d+)`)
	whichClanRE      = regexp.MustCompile(`(?s)name=whichclan.*?</select>`)
	clanOptionRE     = regexp.MustCompile(`<option value=(\d+)>([^<]+)</option>`)
	macroListRE      = regexp.MustCompile(`CAGEBOT`)
	macroIDRE        = regexp.MustCompile(`value="(\d+)">CAGEBOT`)
	steelLiverRE     = regexp.MustCompile(`>Liver of Steel</a>`)
	sewersOpenRE     = regexp.MustCompile(`Old Sewers`)
	chewChoice211RE  = regexp.MustCompile(` value=211>`)
	raidGratesRE     = regexp.MustCompile(`opened (?:a|(?:\d+)) sewer grates? (?:\d+ times )?\((\d+) turns?\)`)
	raidValvesRE     = regexp.MustCompile(`lowered the water level (?:\d+ times )?\((\d+) turns?\)`)
	whiteboardEditRE = regexp.MustCompile(`(?s)<textarea maxlength=5000 name=whiteboard rows=15 cols=60>(.*?)</textarea><br>`)
	whiteboardReadRE = regexp.MustCompile(`border: 1px solid black;'>(.*?)</td>`)
)

type Client struct {
	http    *http.Client
	baseURL string

	username string
	password string

	mu         sync.Mutex
	pwdHash    string
	player     sewer.Player
	rollover   bool
	rolloverAt time.Time
	chatCursor string
}

func NewClient(username, password string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL:  defaultBaseURL,
		username: username,
		password: password,
	}
}

// NewClientForTest points the client at a stub server.
func NewClientForTest(baseURL string) *Client {
	c := NewClient("test", "test")
	c.baseURL = baseURL
	return c
}

func (c *Client) Me() sewer.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player
}

// LoggedIn probes api.php with the current session. A 302 means the
// session is gone.
func (c *Client) LoggedIn(ctx context.Context) bool {
	body, status, err := c.get(ctx, "api.php", url.Values{"what": {"status"}, "for": {forIdentifier}})
	if err != nil {
		log.Printf("Login check failed, returning false to be safe.")
		return false
	}
	if status != http.StatusOK {
		return false
	}

	if rollover := gjson.Get(body, "rollover").Int(); rollover > 0 {
		c.mu.Lock()
		c.rolloverAt = time.Unix(rollover, 0)
		c.mu.Unlock()
	}
	return true
}

// LogIn establishes a session, fetching the pwd hash and player identity.
// Returns ErrRollover while the nightly maintenance window is up; callers
// retry on a timer.
func (c *Client) LogIn(ctx context.Context) error {
	if c.LoggedIn(ctx) {
		return nil
	}

	front, _, err := c.get(ctx, "", nil)
	if err != nil || rolloverPageRE.MatchString(front) {
		c.mu.Lock()
		c.rollover = true
		c.mu.Unlock()
		log.Printf("Rollover appears to be in progress. Checking again in one minute.")
		return ErrRollover
	}
	c.mu.Lock()
	c.rollover = false
	c.mu.Unlock()

	log.Printf("Not logged in. Logging in as %s", c.username)

	form := url.Values{
		"loggingin":    {"Yup."},
		"loginname":    {c.username},
		"password":     {c.password},
		"secure":       {"0"},
		"submitbutton": {"Log In"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login.php", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		return fmt.Errorf("login rejected with status %d", resp.StatusCode)
	}

	body, status, err := c.get(ctx, "api.php", url.Values{"what": {"status"}, "for": {forIdentifier}})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return ErrNotLoggedIn
	}

	c.mu.Lock()
	c.pwdHash = gjson.Get(body, "pwd").String()
	c.player = sewer.Player{
		ID:   gjson.Get(body, "playerid").String(),
		Name: gjson.Get(body, "name").String(),
	}
	if rollover := gjson.Get(body, "rollover").Int(); rollover > 0 {
		c.rolloverAt = time.Unix(rollover, 0)
	}
	c.mu.Unlock()

	log.Printf("Login success.")
	return nil
}

// WaitForLogin retries LogIn every minute until it succeeds or the context
// is canceled. Used at startup and across rollover.
func (c *Client) WaitForLogin(ctx context.Context) error {
	for {
		err := c.LogIn(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrRollover) {
			log.Printf("Login failed: %v. Retrying in one minute.", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Minute):
		}
	}
}

func (c *Client) SecondsToRollover(ctx context.Context) (int, error) {
	c.mu.Lock()
	rollover := c.rollover
	at := c.rolloverAt
	c.mu.Unlock()

	if rollover {
		return 0, nil
	}
	if at.IsZero() || !at.After(time.Now()) {
		if !c.LoggedIn(ctx) {
			return 0, nil
		}
		c.mu.Lock()
		at = c.rolloverAt
		c.mu.Unlock()
	}
	if at.IsZero() {
		return 0, nil
	}
	return int(time.Until(at).Seconds()), nil
}

// get performs a GET without the pwd hash, returning body and status.
func (c *Client) get(ctx context.Context, path string, params url.Values) (string, int, error) {
	u := c.baseURL + "/" + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(body), resp.StatusCode, nil
}

// visit POSTs a game URL with the session pwd hash. Transient failures
// come back as the empty-string sentinel, matching the port contract.
func (c *Client) visit(ctx context.Context, path string, params url.Values) string {
	c.mu.Lock()
	rollover := c.rollover
	pwd := c.pwdHash
	c.mu.Unlock()

	if rollover || pwd == "" {
		return ""
	}

	merged := url.Values{"pwd": {pwd}}
	for key, values := range params {
		merged[key] = values
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path+"?"+merged.Encode(), nil)
	if err != nil {
		return ""
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return string(body)
}

func (c *Client) choice(ctx context.Context, whichChoice, option int) string {
	return c.visit(ctx, "choice.php", url.Values{
		"whichchoice": {fmt.Sprint(whichChoice)},
		"option":      {fmt.Sprint(option)},
	})
}

func (c *Client) Status(ctx context.Context) (sewer.CharacterStatus, error) {
	body := c.visit(ctx, "api.php", url.Values{"what": {"status"}, "for": {forIdentifier}})
	if body == "" {
		return sewer.CharacterStatus{}, ErrNotLoggedIn
	}

	status := sewer.CharacterStatus{
		Level:       int(gjson.Get(body, "level").Int()),
		Adventures:  int(gjson.Get(body, "adventures").Int()),
		Full:        int(gjson.Get(body, "full").Int()),
		Drunk:       int(gjson.Get(body, "drunk").Int()),
		Meat:        int(gjson.Get(body, "meat").Int()),
		TurnsPlayed: int(gjson.Get(body, "turnsplayed").Int()),
		FamiliarID:  int(gjson.Get(body, "familiar").Int()),
		Equipment:   map[string]int{},
	}
	gjson.Get(body, "equipment").ForEach(func(key, value gjson.Result) bool {
		status.Equipment[key.String()] = int(value.Int())
		return true
	})
	return status, nil
}

func (c *Client) Inventory(ctx context.Context) (map[int]int, error) {
	body := c.visit(ctx, "api.php", url.Values{"what": {"inventory"}, "for": {forIdentifier}})
	if body == "" {
		return nil, ErrNotLoggedIn
	}

	inventory := map[int]int{}
	gjson.Parse(body).ForEach(func(key, value gjson.Result) bool {
		inventory[int(key.Int())] = int(value.Int())
		return true
	})
	return inventory, nil
}

// Adventure attempts one turn in the clan sewers.
func (c *Client) Adventure(ctx context.Context) (string, error) {
	return c.visit(ctx, "adventure.php", url.Values{"snarfblat": {"166"}}), nil
}

func (c *Client) VisitPlace(ctx context.Context) (string, error) {
	return c.visit(ctx, "place.php", nil), nil
}

func (c *Client) AcceptCage(ctx context.Context) error {
	c.choice(ctx, 211, 2)
	return nil
}

// ChewThroughCage picks between the two possible chew choice ids based on
// what the cage page actually served.
func (c *Client) ChewThroughCage(ctx context.Context, cagePage string) (string, error) {
	whichChoice := 212
	if chewChoice211RE.MatchString(cagePage) {
		whichChoice = 211
	}
	return c.choice(ctx, whichChoice, 1), nil
}

func (c *Client) OpenGrate(ctx context.Context) (string, error) {
	return c.choice(ctx, 198, 3), nil
}

func (c *Client) TwistValve(ctx context.Context) (string, error) {
	return c.choice(ctx, 197, 3), nil
}

func (c *Client) RescueClanmate(ctx context.Context) error {
	c.choice(ctx, 199, 3)
	return nil
}

func (c *Client) SkipRescue(ctx context.Context) error {
	c.choice(ctx, 199, 1)
	return nil
}

func (c *Client) DismissCombat(ctx context.Context) (string, error) {
	return c.choice(ctx, 296, 1), nil
}

// EnsureAutoAttackMacro verifies the CAGEBOT combat macro exists and wires
// it as the auto-attack, aborting startup otherwise.
func (c *Client) EnsureAutoAttackMacro(ctx context.Context) error {
	macros := c.visit(ctx, "account_combatmacros.php", nil)
	if !macroListRE.MatchString(macros) {
		return errors.New(`combat macro not found: the account must have a macro named CAGEBOT reading "runaway;repeat;"`)
	}

	combatTab := c.visit(ctx, "account.php", url.Values{"tab": {"combat"}})
	match := macroIDRE.FindStringSubmatch(combatTab)
	if match == nil {
		return errors.New("could not resolve CAGEBOT macro id from the combat tab")
	}

	c.visit(ctx, "account.php", url.Values{"am": {"1"}, "action": {"flag_aabosses"}, "value": {"1"}, "ajax": {"1"}})
	c.visit(ctx, "account.php", url.Values{"am": {"1"}, "action": {"autoattack"}, "value": {match[1]}, "ajax": {"1"}})
	return nil
}

func (c *Client) HasSteelLiver(ctx context.Context) (bool, error) {
	page := c.visit(ctx, "charsheet.php", nil)
	if page == "" {
		return false, ErrNotLoggedIn
	}
	return steelLiverRE.MatchString(page), nil
}

func (c *Client) Eat(ctx context.Context, itemID int) (string, error) {
	return c.visit(ctx, "inv_eat.php", url.Values{"which": {"1"}, "whichitem": {fmt.Sprint(itemID)}}), nil
}

func (c *Client) Drink(ctx context.Context, itemID int) (string, error) {
	return c.visit(ctx, "inv_booze.php", url.Values{"which": {"1"}, "whichitem": {fmt.Sprint(itemID)}}), nil
}

func (c *Client) Equip(ctx context.Context, itemID int) error {
	c.visit(ctx, "inv_equip.php", url.Values{
		"which":     {"2"},
		"action":    {"equip"},
		"whichitem": {fmt.Sprint(itemID)},
		"ajax":      {"1"},
	})
	return nil
}

func (c *Client) Whitelists(ctx context.Context) ([]sewer.Clan, error) {
	page := c.visit(ctx, "clan_signup.php", nil)
	if page == "" {
		return nil, ErrNotLoggedIn
	}

	section := whichClanRE.FindString(page)
	var clans []sewer.Clan
	for _, match := range clanOptionRE.FindAllStringSubmatch(section, -1) {
		clans = append(clans, sewer.Clan{
			ID:   match[1],
			Name: html.UnescapeString(match[2]),
		})
	}
	return clans, nil
}

func (c *Client) JoinClan(ctx context.Context, clan sewer.Clan) error {
	c.visit(ctx, "showclan.php", url.Values{
		"whichclan": {clan.ID},
		"action":    {"joinclan"},
		"confirm":   {"on"},
		"recruiter": {"1"},
	})
	return nil
}

func (c *Client) MyClanID(ctx context.Context) (string, error) {
	page := c.visit(ctx, "showplayer.php", url.Values{"who": {c.Me().ID}})
	if page == "" {
		return "", ErrNotLoggedIn
	}
	match := myClanRE.FindStringSubmatch(page)
	if match == nil {
		return "", nil
	}
	return match[1], nil
}

func (c *Client) SewersAccessible(ctx context.Context) (bool, error) {
	page := c.visit(ctx, "clan_hobopolis.php", nil)
	if page == "" {
		return false, ErrNotLoggedIn
	}
	return sewersOpenRE.MatchString(page), nil
}

// GratesAndValves sums side-objective progress out of the clan raid log.
func (c *Client) GratesAndValves(ctx context.Context) (int, int, error) {
	page := c.visit(ctx, "clan_raidlogs.php", nil)
	if page == "" {
		return 0, 0, ErrNotLoggedIn
	}

	grates := sumMatches(raidGratesRE, page)
	valves := sumMatches(raidValvesRE, page)
	return grates, valves, nil
}

func sumMatches(re *regexp.Regexp, page string) int {
	total := 0
	for _, match := range re.FindAllStringSubmatch(page, -1) {
		var n int
		fmt.Sscanf(match[1], "%d", &n)
		total += n
	}
	return total
}

// Whiteboard reads the clan basement whiteboard. The text comes back
// entity encoded either way; a missing edit box means read-only access.
func (c *Client) Whiteboard(ctx context.Context) (sewer.Whiteboard, error) {
	page := c.visit(ctx, "clan_basement.php", url.Values{"whiteboard": {"1"}})
	if page == "" {
		return sewer.Whiteboard{}, ErrNotLoggedIn
	}

	if match := whiteboardEditRE.FindStringSubmatch(page); match != nil {
		return sewer.Whiteboard{
			Text:     html.UnescapeString(strings.ReplaceAll(match[1], "\r", "")),
			Editable: true,
		}, nil
	}

	var text string
	if match := whiteboardReadRE.FindStringSubmatch(page); match != nil {
		text = strings.ReplaceAll(match[1], "\n", "")
		text = strings.ReplaceAll(text, "<br>", "\n")
		text = strings.Replace(text, "<i>(nothing)</i>", "", 1)
	}
	return sewer.Whiteboard{
		Text: html.UnescapeString(strings.ReplaceAll(text, "\r", "")),
	}, nil
}

func (c *Client) SetWhiteboard(ctx context.Context, text string) error {
	c.visit(ctx, "clan_basement.php", url.Values{
		"action":     {"whitewrite"},
		"whiteboard": {text},
	})
	return nil
}

func (c *Client) useChatMacro(ctx context.Context, macro string) {
	c.visit(ctx, "submitnewchat.php", url.Values{
		"graf": {"/clan " + macro},
		"j":    {"1"},
	})
}

// SendMessage whispers a player, chunking oversized text to fit the chat
// message limit.
func (c *Client) SendMessage(ctx context.Context, to sewer.Player, text string) error {
	for _, chunk := range splitMessage(text, messageLimit) {
		c.useChatMacro(ctx, "/w "+to.ID+" "+chunk)
	}
	return nil
}

// SendChannelMessage posts to the hobopolis channel, for replies to
// commands that arrived there rather than by whisper.
func (c *Client) SendChannelMessage(ctx context.Context, text string) error {
	for _, chunk := range splitMessage(text, messageLimit) {
		c.useChatMacro(ctx, "/w Hobopolis "+chunk)
	}
	return nil
}
