package services

import (
	"fmt"

	"ea-dashboard/interfaces"
	"ea-dashboard/models"

	"github.com/sirupsen/logrus"
)

// CommandService manages the per-account command slot. The slot holds at
// most one pending instruction: issuing a second command before the
// terminal polls overwrites the first (last write wins, accepted loss).
type CommandService struct {
	store     interfaces.Store
	publisher *Publisher
	logger    *logrus.Logger
}

// NewCommandService creates a command service
func NewCommandService(store interfaces.Store, publisher *Publisher) *CommandService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &CommandService{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// IssueToggle queues a robot on/off toggle for the account
func (cs *CommandService) IssueToggle(accountID, newStatus string) error {
	return cs.issue(accountID, &models.Command{
		Command: models.CommandToggleRobot,
		Status:  newStatus,
	})
}

// IssueCancel queues a pending-order cancellation for the account
func (cs *CommandService) IssueCancel(accountID, ticket string) error {
	return cs.issue(accountID, &models.Command{
		Command: models.CommandCancelOrder,
		Ticket:  ticket,
	})
}

func (cs *CommandService) issue(accountID string, cmd *models.Command) error {
	if err := cs.store.SaveCommand(accountID, cmd); err != nil {
		return fmt.Errorf("failed to queue command: %w", err)
	}

	cs.logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"command":    cmd.Command,
	}).Info("Command queued")

	cs.publisher.PublishEvent(models.EventCommandIssued, accountID, cmd)
	return nil
}

// Consume reads and clears the account's pending command. Returns nil when
// the slot is empty.
func (cs *CommandService) Consume(accountID string) (*models.Command, error) {
	cmd, err := cs.store.ConsumeCommand(accountID)
	if err != nil {
		return nil, err
	}

	if cmd != nil {
		cs.logger.WithFields(logrus.Fields{
			"account_id": accountID,
			"command":    cmd.Command,
		}).Info("Command delivered to terminal")
	}

	return cmd, nil
}
