package options

import "flag"

// HeroOptions is the parsed command line. Fields are flag pointers bound
// in Parse; zero values mean "not set" and leave the config untouched.
type HeroOptions struct {
	ConfigPath  *string
	WriteConfig *string

	Mode *string // view, record, screenshot

	Image      *string
	Width      *int
	Height     *int
	Fullscreen *bool

	Duration   *float64
	FPS        *int
	OutputFile *string
	FFMPEGPath *string

	Audio *bool

	LogStats *bool
	PerfCSV  *string

	Help *bool
}

// Parse binds and parses the command line flags.
func Parse() *HeroOptions {
	o := &HeroOptions{
		ConfigPath:  flag.String("config", "", "Path to a YAML config file"),
		WriteConfig: flag.String("write-config", "", "Write the effective config as YAML and exit"),
		Mode:        flag.String("mode", "view", "Run mode: view, record, or screenshot"),
		Image:       flag.String("image", "", "Background image path or URL (overrides config)"),
		Width:       flag.Int("width", 0, "Window or output width (overrides config)"),
		Height:      flag.Int("height", 0, "Window or output height (overrides config)"),
		Fullscreen:  flag.Bool("fullscreen", false, "Open the window fullscreen"),
		Duration:    flag.Float64("duration", 0, "Seconds of video to record (overrides config)"),
		FPS:         flag.Int("fps", 0, "Frames per second for record mode (overrides config)"),
		OutputFile:  flag.String("output", "", "Output file for record and screenshot modes"),
		FFMPEGPath:  flag.String("ffmpeg", "", "Path to ffmpeg executable"),
		Audio:       flag.Bool("audio", false, "Modulate the effect from microphone input"),
		LogStats:    flag.Bool("log-stats", false, "Log frame statistics as JSON"),
		PerfCSV:     flag.String("perf-csv", "", "Append frame statistics to a CSV file"),
		Help:        flag.Bool("help", false, "Show help message"),
	}
	flag.Parse()
	return o
}
