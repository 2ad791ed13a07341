package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"motomarket-chat/internal/chat"
	"motomarket-chat/internal/rabbitmq"
	"motomarket-chat/internal/telemetry"
)

var clearForce bool

var clearChatsCmd = &cobra.Command{
	Use:   "clear-chats",
	Short: "Delete every chat room and message",
	Long: `Delete every chat room and message from the configured store.

Requires confirmation unless --force is used. The action is recorded on the
audit routing key.`,
	Args: cobra.NoArgs,
	RunE: runClearChats,
}

func init() {
	clearChatsCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "skip confirmation")
}

func runClearChats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !clearForce {
		fmt.Fprintf(cmd.OutOrStdout(), "About to delete ALL chat rooms from the %s store.\nContinue? [y/N]: ", cfg.StoreDriver)
		response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()

	svc := chat.NewService(chat.Deps{
		Rooms:       st.rooms,
		Messages:    st.messages,
		Users:       st.users,
		Vehicles:    st.vehicles,
		Events:      publisher,
		Logger:      logger,
		ServiceName: cfg.ServiceName,
	})
	result, err := svc.ClearAll(ctx)
	if err != nil {
		return fmt.Errorf("clear chats: %w", err)
	}

	audit := telemetry.NewAuditEmitter(publisher, auditRoutingKey, cfg.ServiceName, cfg.Environment, logger)
	audit.Emit(ctx, telemetry.AuditEntry{
		Level:  "warn",
		Action: "chat_rooms.clear",
		Text:   fmt.Sprintf("cleared %d chat rooms and %d messages from the command line", result.Rooms, result.Messages),
		UserID: "cli",
		Fields: map[string]any{"rooms": result.Rooms, "messages": result.Messages},
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d chat rooms and %d messages.\n", result.Rooms, result.Messages)
	return nil
}
