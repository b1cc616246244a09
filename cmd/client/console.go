package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/halolight/console/internal/client/auth"
	"github.com/halolight/console/internal/client/cookie"
	"github.com/halolight/console/internal/client/pagecache"
	"github.com/halolight/console/internal/client/storage"
	"github.com/halolight/console/internal/client/tabs"
	"github.com/halolight/console/internal/client/ui"
)

const profileForm = "profile"

var errUsage = errors.New("usage")

type consoleDeps struct {
	// Local survives restarts; Session lives for one console run.
	Local     storage.Store
	Session   storage.Store
	Cookies   *cookie.Adapter
	Directory auth.Directory
	Log       *zap.Logger
	Out       io.Writer
}

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

// console is the shell state: the stores plus the page currently shown.
type console struct {
	out   io.Writer
	auth  *auth.Store
	tabs  *tabs.Store
	ui    *ui.Store
	doc   *ui.Attributes
	cache *pagecache.Cache

	path     string
	viewport *pagecache.MemoryViewport
	form     *pagecache.MemoryForm
	teardown []func()

	commands map[string]command
}

func newConsole(d consoleDeps) *console {
	c := &console{
		out:   d.Out,
		tabs:  tabs.NewStore(d.Local, d.Log),
		doc:   &ui.Attributes{},
		cache: pagecache.New(d.Session, d.Log),
	}
	c.ui = ui.NewStore(d.Local, c.doc, d.Log)
	c.auth = auth.NewStore(d.Local, d.Cookies, d.Directory, c, d.Log)
	c.ui.Init()

	c.commands = map[string]command{
		"help":        {"help", c.help},
		"login":       {"login <email> <password> [remember]", c.login},
		"logout":      {"logout", c.logout},
		"accounts":    {"accounts", c.accounts},
		"switch":      {"switch <account-id>", c.switchAccount},
		"whoami":      {"whoami", c.whoami},
		"check":       {"check", c.check},
		"tabs":        {"tabs", c.listTabs},
		"open":        {"open <path> [title]", c.open},
		"close":       {"close <tab-id>", c.closeTab},
		"activate":    {"activate <tab-id>", c.activate},
		"rename":      {"rename <tab-id> <title>", c.rename},
		"close-all":   {"close-all", c.closeAll},
		"skins":       {"skins", c.skins},
		"skin":        {"skin <name>", c.skin},
		"ui":          {"ui", c.settings},
		"set":         {"set <footer|tabbar|header-fixed|tabbar-fixed> <on|off>", c.set},
		"reset-ui":    {"reset-ui", c.resetUI},
		"visit":       {"visit <path>", c.visitCmd},
		"scroll":      {"scroll <y>", c.scroll},
		"input":       {"input <field> <value>", c.input},
		"tick":        {"tick <field> <value> <on|off>", c.tick},
		"form":        {"form", c.showForm},
		"state":       {"state <key> [json-value]", c.state},
		"unset":       {"unset <key>", c.unset},
		"cache":       {"cache", c.showCache},
		"clear-cache": {"clear-cache", c.clearCache},
	}
	return c
}

// run reads commands from in until EOF or "exit".
func (c *console) run(ctx context.Context, in io.Reader) {
	if c.auth.CheckAuth(ctx) {
		c.printf("Signed in as %s\n", c.auth.CurrentUser().Name)
	}
	if id := c.tabs.ActiveTabID(); id != "" {
		if t, ok := c.tabs.Tab(id); ok {
			c.visit(t.Path)
		}
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "halolight> ")
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			c.printf("Bye\n")
			break
		}
		cmd, ok := c.commands[args[0]]
		if !ok {
			c.printf("Unknown command. Type 'help' for a list of commands.\n")
			continue
		}
		if err := cmd.run(ctx, args[1:]); err != nil {
			if errors.Is(err, errUsage) {
				c.printf("Usage: %s\n", cmd.usage)
			} else {
				c.printf("Error: %v\n", err)
			}
		}
	}
	c.leave()
}

func (c *console) printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...)
}

// Redirect implements auth.Navigator.
func (c *console) Redirect(path string) {
	c.visit(path)
}

// Reload implements auth.Navigator.
func (c *console) Reload() {
	if c.path != "" {
		c.visit(c.path)
	}
}

// visit shows path: listeners of the previous page are torn down, the
// cached scroll offset and form values are restored and auto-saving is
// re-attached.
func (c *console) visit(path string) {
	c.leave()
	c.path = path
	c.viewport = &pagecache.MemoryViewport{}
	c.form = pagecache.NewForm(
		pagecache.NewField("nickname", "text", ""),
		pagecache.NewField("newsletter", "checkbox", "yes"),
		pagecache.NewField("plan", "radio", "free"),
		pagecache.NewField("plan", "radio", "pro"),
	)
	c.teardown = append(c.teardown,
		c.cache.RestoreScroll(path, c.viewport),
		c.cache.EnableFormAutoSave(path, profileForm, c.form),
	)
	c.printf("→ %s\n", path)
}

func (c *console) leave() {
	for _, fn := range c.teardown {
		fn()
	}
	c.teardown = nil
}

func (c *console) help(context.Context, []string) error {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.printf("  %s\n", c.commands[name].usage)
	}
	c.printf("  exit\n")
	return nil
}

func (c *console) login(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	creds := auth.Credentials{Email: args[0], Password: args[1]}
	if len(args) > 2 {
		creds.Remember = args[2] == "remember" || args[2] == "true"
	}
	if err := c.auth.Login(ctx, creds); err != nil {
		return err
	}
	c.printf("Welcome, %s\n", c.auth.CurrentUser().Name)
	return nil
}

func (c *console) logout(ctx context.Context, _ []string) error {
	c.auth.Logout(ctx)
	return nil
}

func (c *console) accounts(ctx context.Context, _ []string) error {
	if err := c.auth.LoadAccounts(ctx); err != nil {
		return err
	}
	active := c.auth.Session().ActiveAccountID
	for _, a := range c.auth.Accounts() {
		mark := " "
		if a.ID == active {
			mark = "*"
		}
		c.printf("%s %s\t%s\t%s\n", mark, a.ID, a.Name, a.Email)
	}
	return nil
}

func (c *console) switchAccount(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	return c.auth.SwitchAccount(ctx, args[0])
}

func (c *console) whoami(context.Context, []string) error {
	u := c.auth.CurrentUser()
	if u == nil {
		c.printf("Not signed in\n")
		return nil
	}
	c.printf("%s <%s> id=%s role=%s\n", u.Name, u.Email, u.ID, u.Role)
	return nil
}

func (c *console) check(ctx context.Context, _ []string) error {
	c.printf("authenticated: %t\n", c.auth.CheckAuth(ctx))
	return nil
}

func (c *console) listTabs(context.Context, []string) error {
	active := c.tabs.ActiveTabID()
	for _, t := range c.tabs.Tabs() {
		mark := " "
		if t.ID == active {
			mark = "*"
		}
		c.printf("%s %s\t%s\t%s\n", mark, t.ID, t.Title, t.Path)
	}
	return nil
}

func (c *console) open(_ context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	title := args[0]
	if len(args) > 1 {
		title = strings.Join(args[1:], " ")
	}
	id := c.tabs.AddTab(tabs.NewTab{Title: title, Path: args[0]})
	t, _ := c.tabs.Tab(id)
	c.visit(t.Path)
	return nil
}

func (c *console) closeTab(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	c.tabs.RemoveTab(args[0])
	c.showActive()
	return nil
}

func (c *console) activate(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	c.tabs.SetActiveTab(args[0])
	c.showActive()
	return nil
}

func (c *console) showActive() {
	if t, ok := c.tabs.Tab(c.tabs.ActiveTabID()); ok && t.Path != c.path {
		c.visit(t.Path)
	}
}

func (c *console) rename(_ context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	title := strings.Join(args[1:], " ")
	c.tabs.UpdateTab(args[0], tabs.TabPatch{Title: &title})
	return nil
}

func (c *console) closeAll(context.Context, []string) error {
	c.tabs.ClearTabs()
	c.showActive()
	return nil
}

func (c *console) skins(context.Context, []string) error {
	current := c.ui.CurrentSkin()
	for _, p := range ui.Presets() {
		mark := " "
		if p.Value == current {
			mark = "*"
		}
		c.printf("%s %-8s %s  %s\n", mark, p.Value, p.Label, p.Description)
	}
	return nil
}

func (c *console) skin(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	return c.ui.ApplySkin(ui.Skin(args[0]))
}

func (c *console) settings(context.Context, []string) error {
	b, err := json.MarshalIndent(c.ui.LoadSettings(), "", "  ")
	if err != nil {
		return err
	}
	attr, _ := c.doc.Attribute(ui.SkinAttribute)
	c.printf("%s\n%s=%q\n", b, ui.SkinAttribute, attr)
	return nil
}

func (c *console) set(_ context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	on := args[1] == "on"
	if !on && args[1] != "off" {
		return errUsage
	}

	var v ui.Visibility
	switch args[0] {
	case "footer":
		v.ShowFooter = &on
	case "tabbar":
		v.ShowTabBar = &on
	case "header-fixed":
		v.MobileHeaderFixed = &on
	case "tabbar-fixed":
		v.MobileTabBarFixed = &on
	default:
		return errUsage
	}
	c.ui.SetVisibility(v)
	return nil
}

func (c *console) resetUI(context.Context, []string) error {
	c.ui.Reset()
	return nil
}

func (c *console) visitCmd(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	c.visit(args[0])
	return nil
}

func (c *console) requirePage() error {
	if c.path == "" {
		return errors.New("no page open; use visit or open first")
	}
	return nil
}

func (c *console) scroll(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := c.requirePage(); err != nil {
		return err
	}
	y, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	c.viewport.Scroll(y)
	return nil
}

func (c *console) input(_ context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	if err := c.requirePage(); err != nil {
		return err
	}
	if !c.form.Input(args[0], strings.Join(args[1:], " ")) {
		return fmt.Errorf("no field %q", args[0])
	}
	return nil
}

func (c *console) tick(_ context.Context, args []string) error {
	if len(args) != 3 || (args[2] != "on" && args[2] != "off") {
		return errUsage
	}
	if err := c.requirePage(); err != nil {
		return err
	}
	if !c.form.Check(args[0], args[1], args[2] == "on") {
		return fmt.Errorf("no field %q with value %q", args[0], args[1])
	}
	return nil
}

func (c *console) showForm(context.Context, []string) error {
	if err := c.requirePage(); err != nil {
		return err
	}
	for _, f := range c.form.Fields() {
		switch f.Type() {
		case "checkbox", "radio":
			c.printf("  %s[%s] checked=%t\n", f.Name(), f.Value(), f.Checked())
		default:
			c.printf("  %s=%q\n", f.Name(), f.Value())
		}
	}
	c.printf("  scrollY=%d\n", c.viewport.ScrollY())
	return nil
}

func (c *console) state(_ context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	if err := c.requirePage(); err != nil {
		return err
	}
	if len(args) == 1 {
		v, ok := c.cache.StateCache(c.path, args[0])
		if !ok {
			c.printf("(unset)\n")
			return nil
		}
		b, _ := json.Marshal(v)
		c.printf("%s\n", b)
		return nil
	}

	raw := strings.Join(args[1:], " ")
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		v = raw
	}
	c.cache.SaveStateCache(c.path, args[0], v)
	return nil
}

func (c *console) unset(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := c.requirePage(); err != nil {
		return err
	}
	c.cache.ClearStateCache(c.path, args[0])
	return nil
}

func (c *console) showCache(context.Context, []string) error {
	keys := c.cache.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		st, _ := c.cache.PageState(key)
		b, err := json.Marshal(st)
		if err != nil {
			return err
		}
		c.printf("%s\t%s\n", key, b)
	}
	return nil
}

func (c *console) clearCache(context.Context, []string) error {
	c.cache.ClearAll()
	return nil
}
