// Package launch drives the end-to-end launch pipeline: credential
// refresh, version/mod-loader resolution, Java resolution against the
// merged version document (a Forge install resolves Java earlier, for its
// processors), library and asset downloads, native extraction, and
// finally handing the assembled command line to internal/process.
package launch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/quasar/launchcore/internal/api"
	"github.com/quasar/launchcore/internal/config"
	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/download"
	"github.com/quasar/launchcore/internal/java"
	"github.com/quasar/launchcore/internal/launcherr"
	"github.com/quasar/launchcore/internal/library"
	"github.com/quasar/launchcore/internal/modloader"
	"github.com/quasar/launchcore/internal/process"
	"github.com/quasar/launchcore/internal/resolver"
	"github.com/quasar/launchcore/internal/rules"
)

// Status represents the current launch step.
type Status struct {
	Step       string
	Progress   float64
	Message    string
	IsComplete bool
	Error      error
	LogLine    *process.LogLine
}

// Options configures one run of the pipeline.
type Options struct {
	Instance *core.Instance
	Account  *core.Account
	Config   *config.Config
	Offline  bool

	JavaPathOverride string

	AuthClient *api.AuthClient

	UpdateInstance   func(inst *core.Instance) error
	UpdateLastPlayed func(id string) error
	AddPlaytime      func(id string, seconds int64) error
	SaveAccount      func(acc *core.Account) error
}

// Launcher runs the pipeline described in Options, reporting progress on
// statusChan.
type Launcher struct {
	opts       *Options
	statusChan chan<- Status
	cfg        *config.Config
	resolver   *resolver.Resolver

	javaPath    string
	versionData *resolver.VersionData
	loaderProf  *modloader.Profile
}

func NewLauncher(opts *Options, statusChan chan<- Status) *Launcher {
	return &Launcher{
		opts:       opts,
		statusChan: statusChan,
		cfg:        opts.Config,
		resolver:   resolver.New(opts.Config.Paths.DataDir),
	}
}

// Launch runs every step of the pipeline in order, aborting on the first
// failure. Each step's error is wrapped with the step name for display.
func (l *Launcher) Launch(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"Refreshing credentials", l.refreshCredentials},
		{"Resolving version", l.resolveVersion},
		{"Installing mod loader", l.installModLoader},
		{"Checking Java", l.checkJava},
		{"Downloading libraries", l.downloadLibraries},
		{"Downloading assets", l.downloadAssets},
		{"Preparing game", l.prepareGame},
		{"Running pre-launch command", l.runPreLaunch},
		{"Launching", l.launchGame},
	}

	for i, step := range steps {
		select {
		case <-ctx.Done():
			return launcherr.New(launcherr.KindAborted, "launch cancelled")
		default:
		}

		l.sendStatus(Status{Step: step.name, Progress: float64(i) / float64(len(steps)), Message: step.name + "..."})

		if err := step.fn(ctx); err != nil {
			l.sendStatus(Status{Step: step.name, Message: err.Error(), Error: err})
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	if l.opts.Instance != nil && l.opts.UpdateInstance != nil {
		l.opts.Instance.IsFullyDownloaded = true
		l.opts.Instance.CachedAt = time.Now()
		_ = l.opts.UpdateInstance(l.opts.Instance)
	}

	l.sendStatus(Status{Step: "Complete", Progress: 1.0, Message: "Game closed.", IsComplete: true})
	return nil
}

func (l *Launcher) sendStatus(s Status) {
	if l.statusChan != nil {
		select {
		case l.statusChan <- s:
		default:
		}
	}
}

// refreshCredentials exchanges a stored MSA refresh token for a new
// access-token chain when the account's Minecraft token is expired or
// close to it. Offline accounts and a pipeline run with Offline set skip
// this entirely.
func (l *Launcher) refreshCredentials(ctx context.Context) error {
	acc := l.opts.Account
	if acc == nil || acc.Kind == core.AccountOffline || l.opts.Offline {
		return nil
	}
	if !acc.NeedsMSARefresh() && !acc.IsExpired() {
		return nil
	}
	if l.opts.AuthClient == nil || acc.MSA == nil {
		return launcherr.New(launcherr.KindMissingCredentials, "no stored credentials to refresh")
	}

	if acc.NeedsMSARefresh() {
		tok, err := l.opts.AuthClient.RefreshMSAToken(ctx, acc.MSA.MSARefreshToken)
		if err != nil {
			return launcherr.Wrap(launcherr.KindAuthExpiredFatal, "refreshing microsoft token", err)
		}
		acc.MSA.MSAAccessToken = tok.AccessToken
		if tok.RefreshToken != "" {
			acc.MSA.MSARefreshToken = tok.RefreshToken
		}
		acc.MSA.MSAExpiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	xbl, err := l.opts.AuthClient.AuthenticateXbox(ctx, acc.MSA.MSAAccessToken)
	if err != nil {
		return launcherr.Wrap(launcherr.KindAuthExpiredRefresh, "xbox live auth", err)
	}
	if len(xbl.DisplayClaims.XUI) == 0 {
		return launcherr.New(launcherr.KindAuthExpiredFatal, "xbox live returned no user hash")
	}
	acc.MSA.XBLToken = xbl.Token
	acc.MSA.XBLUserHash = xbl.DisplayClaims.XUI[0].UHS

	xsts, err := l.opts.AuthClient.AuthenticateXSTS(ctx, acc.MSA.XBLToken)
	if err != nil {
		return launcherr.Wrap(launcherr.KindAuthExpiredRefresh, "xsts auth", err)
	}
	acc.MSA.XSTSToken = xsts.Token

	mc, err := l.opts.AuthClient.LoginWithXbox(ctx, acc.MSA.XBLUserHash, acc.MSA.XSTSToken)
	if err != nil {
		return launcherr.Wrap(launcherr.KindAuthExpiredRefresh, "minecraft services login", err)
	}
	acc.MSA.MinecraftToken = mc.AccessToken
	acc.MSA.MinecraftExpires = time.Now().Add(time.Duration(mc.ExpiresIn) * time.Second)

	profile, err := l.opts.AuthClient.FetchProfile(ctx, acc.MSA.MinecraftToken)
	if err != nil {
		return launcherr.Wrap(launcherr.KindAuthExpiredRefresh, "fetching profile", err)
	}
	acc.Profile.ID = profile.ID
	acc.Profile.Name = profile.Name
	acc.PlayerName = profile.Name
	acc.PlayerUUID = profile.ID
	acc.Entitlement.OwnsMinecraft = true

	if l.opts.SaveAccount != nil {
		_ = l.opts.SaveAccount(acc)
	}
	return nil
}

func (l *Launcher) checkJava(ctx context.Context) error {
	if l.opts.JavaPathOverride != "" {
		l.javaPath = l.opts.JavaPathOverride
		return nil
	}
	if l.opts.Instance != nil && l.opts.Instance.Settings.JavaPathOverride != "" {
		if _, err := os.Stat(l.opts.Instance.Settings.JavaPathOverride); err == nil {
			l.javaPath = l.opts.Instance.Settings.JavaPathOverride
			return nil
		}
	}

	required := 8
	if l.versionData != nil && l.versionData.JavaVersion.MajorVersion > 0 {
		required = l.versionData.JavaVersion.MajorVersion
	} else if l.versionData != nil {
		required = java.RequiredJavaMajor(l.versionData.ID)
	}
	rng := java.RangeFor(required)

	detector := java.NewDetector(l.cfg.Paths.JavaDir)
	if best := java.SelectForRange(detector.FindAll(), rng, required); best != nil {
		l.javaPath = best.Path
		l.sendStatus(Status{Step: "Checking Java", Message: "Using " + java.FormatInstallation(best)})
		return nil
	}

	if !l.cfg.Java.AutoDownload {
		return launcherr.New(launcherr.KindJavaNotFound, fmt.Sprintf("no compatible java %d found and auto-download disabled", required))
	}

	l.sendStatus(Status{Step: "Downloading Java", Message: fmt.Sprintf("Downloading Java %d...", required)})
	inst, err := java.NewDownloader().DownloadRuntime(ctx, required, l.cfg.Paths.JavaDir, func(msg string) {
		l.sendStatus(Status{Step: "Downloading Java", Message: msg})
	})
	if err != nil {
		return launcherr.Wrap(launcherr.KindJavaNotFound, fmt.Sprintf("downloading java %d", required), err)
	}
	l.javaPath = inst.Path
	return nil
}

// cachedLoaderProfile is the on-disk shape of a merged version document
// plus the loader-invocation metadata the pipeline needs to replay a
// modded launch entirely offline.
type cachedLoaderProfile struct {
	Data         *resolver.VersionData  `json:"data"`
	LauncherType modloader.LauncherType `json:"launcherType"`
	TweakClass   string                 `json:"tweakClass,omitempty"`
}

// mergedVersionPath is where the fully-merged (vanilla + loader) version
// document is cached per instance, so an offline replay of a modded
// instance doesn't need the loader's meta server to be reachable.
func (l *Launcher) mergedVersionPath() string {
	return filepath.Join(l.opts.Instance.Path, "version.json")
}

func (l *Launcher) resolveVersion(ctx context.Context) error {
	inst := l.opts.Instance

	if inst.Loader != core.LoaderVanilla && inst.Loader != "" {
		if data, err := os.ReadFile(l.mergedVersionPath()); err == nil {
			var cached cachedLoaderProfile
			if json.Unmarshal(data, &cached) == nil && cached.Data != nil {
				l.versionData = cached.Data
				l.loaderProf = &modloader.Profile{LauncherType: cached.LauncherType, TweakClass: cached.TweakClass}
				if l.opts.Offline {
					return nil
				}
			}
		}
	}

	vd, err := l.resolver.Resolve(ctx, inst.Version, l.opts.Offline)
	if err != nil {
		if l.versionData != nil {
			return nil
		}
		return err
	}
	l.versionData = vd
	return nil
}

func (l *Launcher) installModLoader(ctx context.Context) error {
	inst := l.opts.Instance
	if inst.Loader == core.LoaderVanilla || inst.Loader == "" {
		return nil
	}
	if l.opts.Offline && inst.IsFullyDownloaded && l.loaderProf != nil {
		// The merged document and loader metadata were already restored by
		// resolveVersion from the per-instance cache; nothing left to do.
		return nil
	}

	installer, err := modloader.ForInstance(inst.Loader, l.cfg.Paths.LibrariesDir)
	if err != nil {
		return err
	}
	if forge, ok := installer.(*modloader.ForgeInstaller); ok {
		if l.javaPath == "" {
			if err := l.checkJava(ctx); err != nil {
				return err
			}
		}
		forge.SetJavaPath(l.javaPath)
	}

	profile, err := installer.Install(ctx, inst.Version, inst.LoaderVer, l.cfg.Paths.LibrariesDir)
	if err != nil {
		return err
	}
	l.loaderProf = profile

	for _, w := range profile.Warnings {
		l.sendStatus(Status{Step: "Installing mod loader", Message: w})
	}

	if profile.Data != nil {
		l.versionData = resolver.Merge(l.versionData, profile.Data)
	}

	cached := cachedLoaderProfile{Data: l.versionData, LauncherType: profile.LauncherType, TweakClass: profile.TweakClass}
	if data, err := json.MarshalIndent(cached, "", "  "); err == nil {
		_ = os.WriteFile(l.mergedVersionPath(), data, 0644)
	}
	return nil
}

func (l *Launcher) downloadLibraries(ctx context.Context) error {
	if l.opts.Instance.IsFullyDownloaded {
		return nil
	}

	env := rules.CurrentEnv()
	selected, err := library.Select(l.versionData.Libraries, env, l.cfg.Paths.LibrariesDir)
	if err != nil {
		return err
	}
	tasks := library.DownloadTasks(selected)

	if l.versionData.Downloads.Client != nil {
		clientPath := l.clientJarPath()
		tasks = append(tasks, download.Task{
			URL:      l.versionData.Downloads.Client.URL,
			Path:     clientPath,
			Hash:     l.versionData.Downloads.Client.SHA1,
			HashAlgo: download.HashSHA1,
			Size:     l.versionData.Downloads.Client.Size,
		})
	}

	if err := l.performDownload(ctx, "Downloading libraries", tasks, l.cfg.Network.MaxConcurrentDownloads); err != nil {
		return err
	}

	nativesDir := filepath.Join(l.opts.Instance.Path, "natives")
	_, err = library.ExtractNatives(selected, nativesDir)
	return err
}

func (l *Launcher) downloadAssets(ctx context.Context) error {
	if l.opts.Instance.IsFullyDownloaded {
		return nil
	}

	idx, err := library.FetchAssetIndex(ctx, l.versionData.AssetIndex, l.cfg.Paths.AssetsDir)
	if err != nil {
		return err
	}
	tasks := library.AssetDownloadTasks(idx, l.cfg.Paths.AssetsDir)
	if err := l.performDownload(ctx, "Downloading assets", tasks, l.cfg.Network.MaxConcurrentDownloads); err != nil {
		return err
	}
	return library.PopulateLegacyAssets(idx, l.cfg.Paths.AssetsDir)
}

func (l *Launcher) prepareGame(ctx context.Context) error {
	inst := l.opts.Instance
	dirs := []string{
		inst.Path,
		filepath.Join(inst.Path, "mods"),
		filepath.Join(inst.Path, "resourcepacks"),
		filepath.Join(inst.Path, "saves"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return launcherr.Wrap(launcherr.KindIO, "creating "+dir, err)
		}
	}
	return nil
}

func (l *Launcher) runPreLaunch(ctx context.Context) error {
	cmdline := l.opts.Instance.Settings.PreLaunchCmd
	if cmdline == "" {
		cmdline = l.cfg.Commands.PreLaunch
	}
	if cmdline == "" {
		return nil
	}
	return l.runShellCommand(ctx, cmdline)
}

func (l *Launcher) runPostExit(ctx context.Context) error {
	cmdline := l.opts.Instance.Settings.PostExitCmd
	if cmdline == "" {
		cmdline = l.cfg.Commands.PostExit
	}
	if cmdline == "" {
		return nil
	}
	return l.runShellCommand(ctx, cmdline)
}

func (l *Launcher) runShellCommand(ctx context.Context, cmdline string) error {
	shell, flag := "sh", "-c"
	if runtime.GOOS == "windows" {
		shell, flag = "cmd", "/C"
	}
	cmd := exec.CommandContext(ctx, shell, flag, cmdline)
	cmd.Dir = l.opts.Instance.Path
	if out, err := cmd.CombinedOutput(); err != nil {
		return launcherr.Wrap(launcherr.KindIO, "running command: "+string(out), err)
	}
	return nil
}

func (l *Launcher) launchGame(ctx context.Context) error {
	inst := l.opts.Instance
	args := l.buildArguments()

	javaPath := l.javaPath
	wrapper := inst.Settings.WrapperCmd
	var cmd *exec.Cmd
	if wrapper != "" {
		full := append([]string{javaPath}, args...)
		cmd = exec.CommandContext(ctx, wrapper, full...)
	} else {
		cmd = exec.CommandContext(ctx, javaPath, args...)
	}
	cmd.Dir = inst.Path

	l.sendStatus(Status{Step: "Playing", Message: "Game running..."})
	if l.opts.UpdateLastPlayed != nil {
		_ = l.opts.UpdateLastPlayed(inst.ID)
	}

	done := make(chan error, 1)
	sup, err := process.Start(ctx, inst.ID, cmd, func(playtime time.Duration, exitErr error) {
		if inst.Settings.RecordPlaytime && l.opts.AddPlaytime != nil {
			_ = l.opts.AddPlaytime(inst.ID, int64(playtime.Seconds()))
		}
		_ = l.runPostExit(context.Background())
		done <- exitErr
	})
	if err != nil {
		return err
	}

	go l.streamLogs(sup)

	select {
	case err := <-done:
		if err != nil {
			return launcherr.Wrap(launcherr.KindIO, "game exited with error", err)
		}
		return nil
	case <-ctx.Done():
		_ = sup.Kill()
		return launcherr.New(launcherr.KindAborted, "launch cancelled")
	}
}

func (l *Launcher) streamLogs(sup *process.Supervisor) {
	seen := 0
	for {
		time.Sleep(200 * time.Millisecond)
		lines := sup.TailImportant()
		for i := seen; i < len(lines); i++ {
			line := lines[i]
			l.sendStatus(Status{Step: "Launching", LogLine: &line})
		}
		seen = len(lines)
		if sup.State() != process.StateRunning {
			return
		}
	}
}

func (l *Launcher) clientJarPath() string {
	return filepath.Join(l.cfg.Paths.LibrariesDir, "com", "mojang", "minecraft",
		l.versionData.ID, fmt.Sprintf("minecraft-%s-client.jar", l.versionData.ID))
}

func (l *Launcher) buildArguments() []string {
	var args []string
	inst := l.opts.Instance

	switch {
	case len(inst.Settings.JVMArgs) > 0:
		args = append(args, inst.Settings.JVMArgs...)
	case len(l.cfg.Minecraft.DefaultJVMArgs) > 0:
		args = append(args, l.cfg.Minecraft.DefaultJVMArgs...)
	default:
		maxMB := inst.Settings.MaxMemoryMB
		if maxMB == 0 {
			maxMB = l.cfg.Memory.MaxMB
		}
		minMB := inst.Settings.MinMemoryMB
		if minMB == 0 {
			minMB = l.cfg.Memory.MinMB
		}
		args = append(args, fmt.Sprintf("-Xmx%dM", maxMB), fmt.Sprintf("-Xms%dM", minMB))
	}

	if runtime.GOOS == "darwin" {
		args = append(args, "-XstartOnFirstThread")
	}

	nativesDir := filepath.Join(inst.Path, "natives")
	args = append(args, fmt.Sprintf("-Djava.library.path=%s", nativesDir))

	classpath := l.buildClasspath()
	args = append(args, "-cp", classpath)

	mainClass := l.mainClass()
	args = append(args, mainClass)

	args = append(args, l.buildGameArguments()...)

	if l.loaderProf != nil && l.loaderProf.LauncherType == modloader.LauncherTweaker {
		args = append(args, "--tweakClass", l.loaderProf.TweakClass)
	}
	if inst.Settings.Fullscreen {
		args = append(args, "--fullscreen")
	} else if inst.Settings.WindowWidth > 0 && inst.Settings.WindowHeight > 0 {
		args = append(args, "--width", fmt.Sprintf("%d", inst.Settings.WindowWidth), "--height", fmt.Sprintf("%d", inst.Settings.WindowHeight))
	}

	return args
}

// mainClass resolves the main class to invoke. installModLoader already
// merges the loader's VersionData over vanilla's, so a Standard-type
// loader's main class already lives in l.versionData. Tweaker-type loaders
// (legacy Forge, LiteLoader) that didn't ship a main class of their own
// (the merged document then carries vanilla's main class, or none) fall
// back to the vanilla launchwrapper.
func (l *Launcher) mainClass() string {
	tweaker := l.loaderProf != nil && l.loaderProf.LauncherType == modloader.LauncherTweaker
	if tweaker && (l.versionData.MainClass == "" || l.versionData.MainClass == "net.minecraft.client.main.Main") {
		return "net.minecraft.launchwrapper.Launch"
	}
	if l.versionData.MainClass != "" {
		return l.versionData.MainClass
	}
	return "net.minecraft.client.main.Main"
}

func (l *Launcher) buildClasspath() string {
	env := rules.CurrentEnv()
	selected, _ := library.Select(l.versionData.Libraries, env, l.cfg.Paths.LibrariesDir)
	cp := library.Classpath(nil, selected, l.clientJarPath())

	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	return strings.Join(cp, sep)
}

func (l *Launcher) buildGameArguments() []string {
	inst := l.opts.Instance
	version := l.versionData

	uuid := "00000000-0000-0000-0000-000000000000"
	token := "0"
	userType := "legacy"
	playerName := "Player"

	acc := l.opts.Account
	if acc != nil {
		playerName = acc.PlayerName
		uuid = acc.PlayerUUID
		if acc.Kind == core.AccountMSA && acc.MSA != nil {
			token = acc.MSA.MinecraftToken
			userType = "msa"
		}
	}

	replacements := map[string]string{
		"${auth_player_name}":  playerName,
		"${version_name}":      version.ID,
		"${game_directory}":    inst.Path,
		"${assets_root}":       l.cfg.Paths.AssetsDir,
		"${assets_index_name}": version.AssetIndex.ID,
		"${auth_uuid}":         uuid,
		"${auth_access_token}": token,
		"${user_type}":         userType,
		"${version_type}":      string(version.Type),
		"${user_properties}":   "{}",
		"${clientid}":          "",
		"${auth_xuid}":         "",
		"${natives_directory}": filepath.Join(inst.Path, "natives"),
		"${launcher_name}":     "launchcore",
		"${launcher_version}":  "1.0.0",
		"${classpath}":         l.buildClasspath(),
	}

	env := rules.CurrentEnv()

	var args []string
	if version.Arguments != nil && len(version.Arguments.Game) > 0 {
		for _, raw := range version.Arguments.Game {
			for _, v := range decodeConditionalStrings(raw, env) {
				args = append(args, replaceVars(v, replacements))
			}
		}
	} else if version.MinecraftArguments != "" {
		for _, arg := range strings.Split(version.MinecraftArguments, " ") {
			args = append(args, replaceVars(arg, replacements))
		}
	}
	return args
}

// decodeConditionalStrings resolves one entry of a modern Arguments.Game
// list: either a bare JSON string, or a {rules, value} object whose value
// is a string or a list of strings, included only if its rules apply.
func decodeConditionalStrings(raw json.RawMessage, env rules.Env) []string {
	var bare string
	if err := json.Unmarshal(raw, &bare); err == nil {
		return []string{bare}
	}

	var cond resolver.ConditionalArg
	if err := json.Unmarshal(raw, &cond); err != nil {
		return nil
	}
	if !rules.Applies(resolver.ToEngineRules(cond.Rules), env) {
		return nil
	}

	var single string
	if err := json.Unmarshal(cond.Value, &single); err == nil {
		return []string{single}
	}
	var list []string
	if err := json.Unmarshal(cond.Value, &list); err == nil {
		return list
	}
	return nil
}

func replaceVars(s string, replacements map[string]string) string {
	for k, v := range replacements {
		s = strings.ReplaceAll(s, k, v)
	}
	return s
}

func (l *Launcher) performDownload(ctx context.Context, stepName string, items []download.Task, workerCount int) error {
	if len(items) == 0 {
		return nil
	}
	mgr := download.NewManager(workerCount)
	progressChan := make(chan download.Progress, 10)

	go func() {
		for p := range progressChan {
			percent := 0.0
			if p.TotalBytes > 0 {
				percent = float64(p.DownloadedBytes) / float64(p.TotalBytes)
			} else if p.TotalItems > 0 {
				percent = float64(p.CompletedItems) / float64(p.TotalItems)
			}
			l.sendStatus(Status{
				Step:     stepName,
				Progress: percent,
				Message:  fmt.Sprintf("%s (%s)", p.CurrentItem, download.FormatSpeed(p.Speed)),
			})
		}
	}()

	result, err := mgr.Download(ctx, items, progressChan)
	close(progressChan)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return launcherr.New(launcherr.KindNetwork, fmt.Sprintf("%d items failed to download", result.Failed))
	}
	return nil
}
