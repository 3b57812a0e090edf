// Command intake-chat runs one intake conversation in the terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/wolfman30/clinic-intake/cmd/mainconfig"
	"github.com/wolfman30/clinic-intake/internal/app/bootstrap"
	"github.com/wolfman30/clinic-intake/internal/bookings"
	"github.com/wolfman30/clinic-intake/internal/intake"
	"github.com/wolfman30/clinic-intake/internal/notify"
	"github.com/wolfman30/clinic-intake/internal/scheduling"
)

func main() {
	cfg := mainconfig.LoadEnv()
	if os.Getenv("LOG_FORMAT") == "" {
		cfg.LogFormat = "text"
	}
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	logger := mainconfig.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loadAWS := func(ctx context.Context) (aws.Config, error) { return mainconfig.LoadAWSConfig(ctx, cfg) }

	stores, err := bootstrap.BuildStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open stores", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	sender, err := bootstrap.BuildEmailSender(ctx, cfg, loadAWS, logger)
	if err != nil {
		logger.Error("failed to configure email", "error", err)
		os.Exit(1)
	}
	form, err := bootstrap.BuildIntakeForm(ctx, cfg, loadAWS, logger)
	if err != nil {
		logger.Error("failed to configure intake form", "error", err)
		os.Exit(1)
	}
	recorder := bookings.NewRecorder(stores.Ledger, notify.NewConfirmationNotifier(sender, form, cfg.ClinicName, logger), logger)
	engine := bootstrap.NewEngineFactory(stores, recorder, nil, cfg.ClinicName, logger)()

	if err := chat(ctx, engine, os.Stdin, os.Stdout); err != nil {
		logger.Error("chat ended with error", "error", err)
		os.Exit(1)
	}
}

// conversation is the engine surface the terminal drives.
type conversation interface {
	Greeting() intake.Reply
	Process(ctx context.Context, input string) intake.Reply
	SelectSlot(ctx context.Context, sel scheduling.Selection) (intake.Reply, error)
}

// chat reads lines until EOF. While a slot grid is showing, a number picks
// the matching slot; anything else goes to the engine as text.
func chat(ctx context.Context, engine conversation, in io.Reader, out io.Writer) error {
	var grid []scheduling.Selection
	show := func(r intake.Reply) {
		fmt.Fprintf(out, "\nAgent: %s\n", r.Message)
		grid = nil
		if r.Slots != nil {
			grid = printGrid(out, r.Slots)
		}
		fmt.Fprint(out, "> ")
	}

	show(engine.Greeting())
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Text()
		if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && len(grid) > 0 {
			if n < 1 || n > len(grid) {
				fmt.Fprintf(out, "Pick a number between 1 and %d.\n> ", len(grid))
				continue
			}
			// Rejections come back as a re-offer reply.
			reply, _ := engine.SelectSlot(ctx, grid[n-1])
			show(reply)
			continue
		}
		show(engine.Process(ctx, line))
	}
	fmt.Fprintln(out)
	return scanner.Err()
}

// printGrid numbers every slot in the directive and returns them in display order.
func printGrid(out io.Writer, d *intake.SlotDirective) []scheduling.Selection {
	var grid []scheduling.Selection
	fmt.Fprintf(out, "\nAvailable slots %s:\n", d.Hint)
	for _, doc := range d.Doctors {
		fmt.Fprintf(out, "  %s\n", doc.Doctor)
		for _, day := range doc.Dates {
			var cells []string
			for _, clock := range day.Times {
				grid = append(grid, scheduling.Selection{Doctor: doc.Doctor, Date: day.Date, Time: clock})
				cells = append(cells, fmt.Sprintf("[%d] %s", len(grid), clock))
			}
			fmt.Fprintf(out, "    %s  %s\n", day.Date, strings.Join(cells, "  "))
		}
	}
	fmt.Fprintln(out, "Type a number to book it.")
	return grid
}
