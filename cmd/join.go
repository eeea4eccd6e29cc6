package cmd

import (
	"fmt"
	"os/user"
	"time"

	"github.com/Manish-keer19/meeting-app/internal/config"
	"github.com/Manish-keer19/meeting-app/internal/media"
	"github.com/Manish-keer19/meeting-app/internal/room"
	"github.com/Manish-keer19/meeting-app/internal/rtc"
	"github.com/Manish-keer19/meeting-app/internal/signaling"
	"github.com/Manish-keer19/meeting-app/internal/ui"
	"github.com/Manish-keer19/meeting-app/internal/utils"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	flagRoom     string
	flagName     string
	flagDomain   string
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
	flagInsecure bool
)

var joinCmd = &cobra.Command{
	Use:     "join",
	Aliases: []string{"j"},
	Short:   "Join a video room",
	Long: `Join a video room, or create one by omitting --room.

The first participant to arrive becomes the host and decides who else
gets in. Everyone else waits in the lobby until the host admits them.

Examples:
  meet join
  meet join --room brave-otter-lantern --name manish
  meet join --domain meet.example.com --insecure`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return joinRoom()
	},
}

func joinRoom() error {
	cfg, err := config.Load(config.Options{
		Domain:     flagDomain,
		Insecure:   flagInsecure,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
	})
	if err != nil {
		return err
	}

	roomID := flagRoom
	created := roomID == ""
	if created {
		roomID = utils.GenerateRoomID()
	}

	name := flagName
	if name == "" {
		if u, uerr := user.Current(); uerr == nil {
			name = u.Username
		} else {
			name = "guest"
		}
	}

	source, err := media.NewStaticSource()
	if err != nil {
		return fmt.Errorf("set up media: %w", err)
	}

	fmt.Println()
	stopSpinner := ui.RunConnectionSpinner("Connecting to server...")
	defer stopSpinner()

	channel := signaling.Shared(cfg.WebSocketURL)
	session := room.NewSession(cfg, channel, source, roomID, name, ui.BellNotifier{})

	model := ui.NewRoomModel(session)
	p := tea.NewProgram(model)

	session.OnRosterChange = func() { p.Send(ui.RosterUpdatedMsg{}) }
	session.OnStatusChange = func(st room.Status) { p.Send(ui.StatusChangedMsg{Status: st}) }
	session.OnPendingChange = func() { p.Send(ui.PendingChangedMsg{}) }
	session.OnChatMessage = func(_ string, msg rtc.ChatMessage) {
		p.Send(ui.ChatReceivedMsg{Name: msg.Name, Text: msg.Text})
	}
	session.OnDisconnected = func(err error) { p.Send(ui.DisconnectedMsg{Err: err}) }

	if err := session.Join(); err != nil {
		stopSpinner()
		return err
	}
	stopSpinner()

	if created {
		ui.PrintSuccess("Created room " + roomID)
	}
	ui.PrintInfof("%s %s", ui.IconLink, cfg.GetRoomLink(roomID))
	fmt.Println()

	if _, err := p.Run(); err != nil {
		session.Leave()
		return err
	}
	session.Leave()

	if err := model.Err(); err != nil {
		ui.PrintWarning("Connection lost: " + err.Error())
	}

	displayCallSummary(session, model)
	return nil
}

func displayCallSummary(session *room.Session, model *ui.RoomModel) {
	duration := "0:00"
	if joinedAt := session.JoinedAt(); !joinedAt.IsZero() {
		duration = utils.FormatTimeDuration(time.Since(joinedAt))
	}

	fmt.Println()
	ui.RenderCallSummary(ui.CallSummary{
		Room:         session.RoomID(),
		Duration:     duration,
		Participants: model.PeakParticipants(),
		ChatMessages: model.ChatCount(),
	})
}

func init() {
	rootCmd.AddCommand(joinCmd)

	joinCmd.Flags().StringVarP(&flagRoom, "room", "r", "", "Room ID to join (generated when omitted)")
	joinCmd.Flags().StringVarP(&flagName, "name", "n", "", "Display name (defaults to the OS username)")
	joinCmd.Flags().StringVarP(&flagDomain, "domain", "d", "", "Custom domain")
	joinCmd.Flags().StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	joinCmd.Flags().StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	joinCmd.Flags().StringVarP(&flagTURNUser, "turn-user", "u", "", "TURN username")
	joinCmd.Flags().StringVarP(&flagTURNPass, "turn-pass", "p", "", "TURN password")
	joinCmd.Flags().BoolVar(&flagInsecure, "insecure", false, "Use plain ws:// for signaling")
}
