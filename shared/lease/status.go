package lease

import (
	"time"

	"github.com/pavitra93/go-lease-management/shared/audit"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
)

// StatusOn returns the status a contract should have on today: expired once
// its end date has passed, warning within warningDays of it, active otherwise
func StatusOn(c models.Contract, today time.Time, warningDays int) models.ContractStatus {
	today = models.Date(today)
	end := models.Date(c.EndDate)

	switch {
	case today.After(end):
		return models.ContractExpired
	case !today.AddDate(0, 0, warningDays).Before(end):
		return models.ContractWarning
	default:
		return models.ContractActive
	}
}

// RefreshStatuses recomputes every contract's status for today and returns
// how many changed
func (s *Service) RefreshStatuses(uow *store.UnitOfWork, today time.Time) (int, error) {
	contracts, err := s.contracts.Find(uow)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range contracts {
		c := &contracts[i]
		status := StatusOn(*c, today, s.warningDays)
		if status == c.Status {
			continue
		}

		previous := c.Status
		c.Status = status
		if err := s.contracts.Save(uow, c); err != nil {
			return changed, err
		}
		_, err := s.trail.Append(uow, models.ActionUpdate, audit.TableContracts, c.ID, map[string]any{
			"status":          string(status),
			"previous_status": string(previous),
		})
		if err != nil {
			return changed, err
		}
		changed++
	}

	uow.Log().WithField("changed", changed).Info("Contract statuses refreshed")
	return changed, nil
}
