package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/MaratBR/viirs-composer/internal/geodesy"
	"github.com/MaratBR/viirs-composer/internal/notification"
	"github.com/MaratBR/viirs-composer/internal/processor"
	"github.com/MaratBR/viirs-composer/internal/properties"
	"github.com/MaratBR/viirs-composer/internal/raster"
	"github.com/MaratBR/viirs-composer/internal/utils"
	"github.com/MaratBR/viirs-composer/output"
)

func printBanner() {
	figure1 := figure.NewFigure("VIIRS", "isometric1", true)
	figure2 := figure.NewFigure("Composer", "standard", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

func initCLI(p *processor.Processor) {
	defer func() {
		if r := recover(); r != nil {
			pc, file, line, ok := runtime.Caller(3)
			var location string
			if ok {
				fn := runtime.FuncForPC(pc)
				location = fmt.Sprintf("%s:%d in %s", file, line, fn.Name())
			} else {
				location = "Unknown location"
			}

			fmt.Printf("\n\033[31mPANIC: %v\033[0m\n", r)
			fmt.Printf("\033[31mLocation: %s\033[0m\n", location)
			fmt.Printf("\033[31mExiting...\033[0m\n")

			stack := debug.Stack()
			errMessage := fmt.Sprintf("VIIRS Composer panic:\n\n%v\n\nLocation: %s\n\nStack trace:\n%s", r, location, stack)
			if err := notification.SendDiscordErrorNotification(errMessage); err != nil {
				fmt.Printf("\033[31mFailed to send notification: %s\033[0m\n", err.Error())
			}
		}
	}()
	printBanner()

	reader := bufio.NewReader(os.Stdin)
	readLine := func(prompt string) string {
		fmt.Printf("\033[34m%s\033[0m", prompt)
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line)
	}

	for {
		fmt.Println("\033[34m===================\033[0m")
		fmt.Println("\033[34m1. Process recent file sets\033[0m")
		fmt.Println("\033[34m2. List discovered file sets\033[0m")
		fmt.Println("\033[34m3. Compute NDVI from a composite\033[0m")
		fmt.Println("\033[34m4. Compute NDVI dynamics\033[0m")
		fmt.Println("\033[34m5. Reproject a cloud mask\033[0m")
		fmt.Println("\033[34m6. Create NDVI animation\033[0m")
		fmt.Println("\033[34m7. Reset processing history\033[0m")
		fmt.Println("\033[34m8. Exit\033[0m")
		fmt.Println("\033[34mEnter your choice:\033[0m")

		var choice int
		_, err := fmt.Scan(&choice)
		if err != nil {
			fmt.Printf("\n\033[31mInvalid input. Please enter a number.\033[0m\n")
			fmt.Scanln()
			continue
		}
		reader.ReadString('\n')

		switch choice {
		case 1:
			err := p.ProcessRecentFilesets()
			if err != nil {
				fmt.Printf("\n\033[31mError processing file sets: %s\033[0m\n", err.Error())
				notification.SendDiscordErrorNotification(fmt.Sprintf("VIIRS Composer\n\nError processing file sets: %s", err.Error()))
				continue
			}
			fmt.Printf("\n\033[32mProcessing finished!\033[0m\n")
			notification.SendDiscordSuccessNotification(fmt.Sprintf("VIIRS Composer\n\nProcessing finished, products saved to %s", p.OutDir))
		case 2:
			filesets, err := p.AllFilesets()
			if err != nil {
				fmt.Printf("\n\033[31mError discovering file sets: %s\033[0m\n", err.Error())
				continue
			}
			if len(filesets) == 0 {
				fmt.Printf("\n\033[33mNo file sets found in search directories.\033[0m\n")
				continue
			}
			fmt.Println("\033[32m\nDiscovered file sets:\033[0m")
			for _, fs := range filesets {
				fmt.Printf("\033[32m- %s (%d band files)\033[0m\n", fs.ID(), len(fs.BandFiles))
			}
		case 3:
			fmt.Println("\033[33m\nWarning:\033[0m")
			fmt.Println("\033[33m- The composite's first two bands must be red and near-infrared (SVI01, SVI02).\033[0m")

			compositePath := readLine("Enter the composite path: ")
			cloudMaskPath := readLine("Enter the cloud mask path (empty to skip masking): ")
			outputPath := readLine("Enter the output path: ")

			if err := p.ProcessNDVI(compositePath, cloudMaskPath, outputPath); err != nil {
				fmt.Printf("\n\033[31mError computing NDVI: %s\033[0m\n", err.Error())
				continue
			}
			fmt.Printf("\n\033[32mNDVI saved to %s\033[0m\n", outputPath)
		case 4:
			b1Path := readLine("Enter the first (older) NDVI path: ")
			b2Path := readLine("Enter the second (newer) NDVI path: ")
			outputPath := readLine("Enter the output path: ")

			if err := p.ProcessNDVIDynamics(b1Path, b2Path, outputPath); err != nil {
				fmt.Printf("\n\033[31mError computing NDVI dynamics: %s\033[0m\n", err.Error())
				continue
			}
			fmt.Printf("\n\033[32mNDVI dynamics saved to %s\033[0m\n", outputPath)
		case 5:
			inputPath := readLine("Enter the cloud mask path: ")
			outputPath := readLine("Enter the output path: ")

			if err := p.ProcessCloudMask(inputPath, outputPath); err != nil {
				fmt.Printf("\n\033[31mError reprojecting cloud mask: %s\033[0m\n", err.Error())
				continue
			}
			fmt.Printf("\n\033[32mCloud mask saved to %s\033[0m\n", outputPath)
		case 6:
			quicklooks, err := filepath.Glob(filepath.Join(p.OutDir, "*_ndvi.png"))
			if err != nil || len(quicklooks) == 0 {
				fmt.Printf("\n\033[31mNo NDVI quicklooks found in %s\033[0m\n", p.OutDir)
				continue
			}
			quicklooks = sortQuicklooksByDate(quicklooks)

			outputPath := readLine("Enter the output video path: ")
			if err := output.CreateVideoFromImages(quicklooks, outputPath); err != nil {
				fmt.Printf("\n\033[31mError creating animation: %s\033[0m\n", err.Error())
				continue
			}
			fmt.Printf("\n\033[32mAnimation created from %d quicklooks\033[0m\n", len(quicklooks))
		case 7:
			if err := p.Reset(); err != nil {
				fmt.Printf("\n\033[31mError resetting processing history: %s\033[0m\n", err.Error())
				continue
			}
			fmt.Printf("\n\033[32mProcessing history cleared.\033[0m\n")
		case 8:
			println("Exiting...")
			return
		default:
			println("Invalid choice. Please try again.")
		}
	}
}

// sortQuicklooksByDate orders quicklook paths by the acquisition date
// embedded in their file set ID (the d20210131 segment). Paths without a
// parseable date sort first.
func sortQuicklooksByDate(paths []string) []string {
	byDate := make(map[time.Time][]string)
	for _, path := range paths {
		var date time.Time
		for _, part := range strings.Split(filepath.Base(path), "_") {
			if strings.HasPrefix(part, "d") {
				if d, err := time.Parse("20060102", strings.TrimPrefix(part, "d")); err == nil {
					date = d
					break
				}
			}
		}
		byDate[date] = append(byDate[date], path)
	}

	ordered := make([]string, 0, len(paths))
	for _, date := range utils.SortedDates(byDate) {
		group := byDate[date]
		sort.Strings(group)
		ordered = append(ordered, group...)
	}
	return ordered
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			fmt.Println("\033[33mNo .env file found, relying on environment variables\033[0m")
		}
	}

	godal.RegisterAll()

	searchDirs := properties.SearchDirs()
	if len(searchDirs) == 0 {
		fmt.Println("\033[31mVIIRS_SEARCH_DIRS is not set\033[0m")
		os.Exit(1)
	}
	outDir := properties.OutputPath()
	if outDir == "" {
		fmt.Println("\033[31mVIIRS_OUTPUT_PATH is not set\033[0m")
		os.Exit(1)
	}

	proj := geodesy.NewPlanarProjector(properties.ProjectionWKT())
	p, err := processor.New(searchDirs, outDir, properties.DataPath(), properties.Scale(), proj, raster.Reader{})
	if err != nil {
		fmt.Printf("\033[31mFailed to initialize: %s\033[0m\n", err.Error())
		os.Exit(1)
	}

	initCLI(p)
}
