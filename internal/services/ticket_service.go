package services

import (
	"github.com/sirupsen/logrus"
	"github.com/transporttn/busline-backend/internal/database"
	"github.com/transporttn/busline-backend/internal/models"
)

// TicketService drives a ticket through its lifecycle after issuance:
// validation at boarding (CONFIRMED → USED), passenger refund requests
// (CONFIRMED → PENDING_REFUND) and the administrative refund resolution
// (PENDING_REFUND → REFUNDED or CANCELLED).
type TicketService struct {
	bookingRepo *database.BookingRepository
	logger      *logrus.Logger
}

// NewTicketService creates a new TicketService
func NewTicketService(bookingRepo *database.BookingRepository, logger *logrus.Logger) *TicketService {
	return &TicketService{
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// ValidateTicket looks up a ticket by its opaque token and marks it USED.
// There is no un-validate path. Failure modes:
//   - models.ErrTicketNotFound: no booking carries the token
//   - models.ErrTicketAlreadyUsed: the ticket was validated before
//   - models.ErrTicketNotBoardable: the ticket is in a refund or cancelled
//     status; only CONFIRMED tickets board
//
// The transition itself is conditional on the CONFIRMED status, so a refund
// request racing this call cannot leave the ticket in both paths.
func (s *TicketService) ValidateTicket(token string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByToken(token)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case models.BookingStatusConfirmed:
		// fall through to the transition
	case models.BookingStatusUsed:
		return nil, models.ErrTicketAlreadyUsed
	default:
		return nil, models.ErrTicketNotBoardable
	}

	changed, err := s.bookingRepo.MarkUsed(token)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Lost a race: someone validated or refund-requested it since the
		// lookup. Re-read to report the accurate failure.
		booking, err = s.bookingRepo.GetByToken(token)
		if err != nil {
			return nil, err
		}
		if booking.Status == models.BookingStatusUsed {
			return nil, models.ErrTicketAlreadyUsed
		}
		return nil, models.ErrTicketNotBoardable
	}

	booking.Status = models.BookingStatusUsed

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"trip_id":     booking.TripID,
		"seat_number": booking.SeatNumber,
	}).Info("Ticket validated")

	return booking, nil
}

// RequestRefund moves a CONFIRMED ticket to PENDING_REFUND, recording the
// reason and payout destination. A second request on the same ticket, or a
// request on a used/settled ticket, fails with models.ErrTicketNotRefundable.
// Resolution to REFUNDED or CANCELLED is a separate administrative step.
func (s *TicketService) RequestRefund(req *models.RefundRequest) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, models.ErrTicketNotRefundable
	}

	changed, err := s.bookingRepo.RequestRefund(req.BookingID, req.Reason, req.IBAN)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, models.ErrTicketNotRefundable
	}

	booking, err = s.bookingRepo.GetByID(req.BookingID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"trip_id":    booking.TripID,
	}).Info("Refund requested")

	return booking, nil
}

// ResolveRefund settles a pending refund to REFUNDED or CANCELLED. Fails
// with models.ErrTicketNotRefundable when the ticket is not pending.
func (s *TicketService) ResolveRefund(bookingID string, status models.BookingStatus) (*models.Booking, error) {
	if _, err := s.bookingRepo.GetByID(bookingID); err != nil {
		return nil, err
	}

	changed, err := s.bookingRepo.ResolveRefund(bookingID, status)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, models.ErrTicketNotRefundable
	}

	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"status":     booking.Status,
	}).Info("Refund resolved")

	return booking, nil
}

// PendingRefunds lists tickets awaiting administrative resolution
func (s *TicketService) PendingRefunds() ([]models.Booking, error) {
	return s.bookingRepo.ListPendingRefunds()
}
