package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"drinklog/internal/blob"
	"drinklog/internal/calculator"
	"drinklog/internal/cache"
	"drinklog/internal/core"
	"drinklog/internal/log"
	"drinklog/internal/metrics"
	"drinklog/internal/storage"
)

// EntryService runs the expense splitting engine. Every mutation executes in
// a single storage transaction: the entry rows, their drink lines and the
// member and group ledgers either all change together or not at all.
type EntryService struct {
	store   storage.Store
	images  blob.ImageStore
	summary cache.Cache[any]
	metrics *metrics.Metrics
	logger  *log.Logger
}

func NewEntryService(store storage.Store, images blob.ImageStore, summary cache.Cache[any], m *metrics.Metrics, logger *log.Logger) *EntryService {
	return &EntryService{
		store:   store,
		images:  images,
		summary: summary,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentEntry),
	}
}

// Create writes a new entry. For a group expense the author's row becomes the
// anchor carrying its own id as the share id, every other roster member gets
// a mirrored row with the divided price, the member ledgers move by the share
// and the group ledger moves by the gross total. A zero-price group entry
// creates no mirrors and touches no ledger.
func (s *EntryService) Create(ctx context.Context, req core.EntryRequest) (*core.EntryWithDrinks, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalid, err)
	}

	var (
		out     *core.EntryWithDrinks
		mirrors int
	)
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		grouped := req.IsGrouped()

		var roster []int64
		if grouped {
			var err error
			roster, err = tx.GroupMemberIDs(ctx, *req.GroupID)
			if err != nil {
				return err
			}
		}

		total := req.TotalPrice
		savePrice := total
		if grouped {
			savePrice = calculator.SharePrice(total, len(roster))
		}

		anchor := &core.Entry{
			UserID:       req.UserID,
			GroupID:      req.GroupID,
			DrinkingDate: core.Day(req.DrinkingDate),
			Memo:         req.Memo,
			TotalPrice:   savePrice,
			PhotoURL:     req.PhotoURL,
			CreatedAt:    time.Now().UTC(),
		}
		if err := tx.CreateEntry(ctx, anchor); err != nil {
			return err
		}
		if grouped {
			anchor.GroupEntryID = &anchor.ID
			if err := tx.UpdateEntry(ctx, anchor); err != nil {
				return err
			}
		}

		items, err := s.writeDrinkLines(ctx, tx, anchor, req.Drinks, len(roster))
		if err != nil {
			return err
		}

		switch {
		case grouped && total > 0:
			if _, err := tx.GetMember(ctx, req.UserID); err != nil {
				return err
			}
			if err := tx.AddMemberPaid(ctx, req.UserID, savePrice); err != nil {
				return err
			}
			mirrors, err = s.fanOutShares(ctx, tx, anchor, req, roster, items)
			if err != nil {
				return err
			}
		case !grouped && total > 0:
			if _, err := tx.GetMember(ctx, req.UserID); err != nil {
				return err
			}
			if err := tx.AddMemberPaid(ctx, req.UserID, total); err != nil {
				return err
			}
		}

		out = &core.EntryWithDrinks{Entry: *anchor, Drinks: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.summary.Clear()
	s.metrics.EntriesCreated.Add(float64(1 + mirrors))
	s.metrics.SharesFannedOut.Add(float64(mirrors))
	s.logger.InfoContext(ctx, "entry created",
		log.FieldEntryID, out.ID,
		log.FieldUserID, out.UserID,
		log.FieldTotalPrice, out.TotalPrice,
		log.FieldMembers, mirrors+1,
	)
	return out, nil
}

// fanOutShares books the gross total on the group ledger and writes one
// mirrored entry per roster member besides the author, copying the anchor's
// already-divided drink lines.
func (s *EntryService) fanOutShares(ctx context.Context, tx storage.Tx, anchor *core.Entry, req core.EntryRequest, roster []int64, items []core.DrinkItem) (int, error) {
	if _, err := tx.GetGroup(ctx, *req.GroupID); err != nil {
		return 0, err
	}
	if len(roster) == 0 {
		return 0, core.ErrNoGroupMembers
	}

	perMember := calculator.SharePrice(req.TotalPrice, len(roster))
	if err := tx.AddGroupPaid(ctx, *req.GroupID, req.TotalPrice); err != nil {
		return 0, err
	}

	mirrors := 0
	for _, memberID := range roster {
		if memberID == req.UserID {
			continue
		}
		if _, err := tx.GetMember(ctx, memberID); err != nil {
			return 0, fmt.Errorf("group member %d: %w", memberID, err)
		}
		if err := tx.AddMemberPaid(ctx, memberID, perMember); err != nil {
			return 0, err
		}

		mirror := &core.Entry{
			UserID:        memberID,
			GroupID:       req.GroupID,
			GroupEntryID:  &anchor.ID,
			DrinkingDate:  anchor.DrinkingDate,
			Memo:          req.Memo,
			TotalPrice:    perMember,
			PhotoURL:      req.PhotoURL,
			CreatedAt:     time.Now().UTC(),
			IsGroupShared: true,
		}
		if err := tx.CreateEntry(ctx, mirror); err != nil {
			return 0, err
		}
		for _, item := range items {
			line := &core.DrinkLine{EntryID: mirror.ID, DrinkID: item.DrinkID, Quantity: item.Quantity}
			if err := tx.AddDrinkLine(ctx, line); err != nil {
				return 0, err
			}
		}
		mirrors++

		s.logger.DebugContext(ctx, "mirror entry created",
			log.FieldEntryID, mirror.ID,
			log.FieldUserID, memberID,
			log.FieldShareID, anchor.ID,
			log.FieldSharePrice, perMember,
		)
	}
	return mirrors, nil
}

// Get returns one entry with its drink list.
func (s *EntryService) Get(ctx context.Context, id int64) (*core.EntryWithDrinks, error) {
	var out *core.EntryWithDrinks
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		entry, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		items, err := loadDrinkItems(ctx, tx, entry.ID)
		if err != nil {
			return err
		}
		out = &core.EntryWithDrinks{Entry: *entry, Drinks: items}
		return nil
	})
	return out, err
}

// ListByUser returns all of a member's entries, mirrors included.
func (s *EntryService) ListByUser(ctx context.Context, userID int64) ([]core.EntryWithDrinks, error) {
	return s.withDrinks(ctx, func(tx storage.Tx) ([]core.Entry, error) {
		return tx.EntriesByUser(ctx, userID)
	})
}

// ListByGroup returns every entry booked against a group.
func (s *EntryService) ListByGroup(ctx context.Context, groupID int64) ([]core.EntryWithDrinks, error) {
	return s.withDrinks(ctx, func(tx storage.Tx) ([]core.Entry, error) {
		return tx.EntriesByGroup(ctx, groupID)
	})
}

// SharedByUser returns only the mirrored entries a member received from
// group expenses authored by others.
func (s *EntryService) SharedByUser(ctx context.Context, userID int64) ([]core.EntryWithDrinks, error) {
	return s.withDrinks(ctx, func(tx storage.Tx) ([]core.Entry, error) {
		return tx.GroupSharedEntriesByUser(ctx, userID)
	})
}

// DailyEntries returns a member's entries for one calendar day.
func (s *EntryService) DailyEntries(ctx context.Context, userID int64, date time.Time) ([]core.EntryWithDrinks, error) {
	return s.withDrinks(ctx, func(tx storage.Tx) ([]core.Entry, error) {
		return tx.EntriesByUserAndDate(ctx, userID, core.Day(date))
	})
}

// Update replaces an entry's content. newPhotoURL empty means keep the
// current photo; a different non-empty URL replaces it and the old object is
// removed after the transaction commits. Three paths exist: the group
// membership changed, the group stayed the same, or the entry is personal on
// both sides.
func (s *EntryService) Update(ctx context.Context, id int64, req core.EntryRequest, newPhotoURL string) (*core.EntryWithDrinks, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalid, err)
	}

	var (
		out      *core.EntryWithDrinks
		oldPhoto string
	)
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		entry, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		origGroupID := entry.GroupID
		origTotal := entry.TotalPrice

		// Rows written before share ids existed get backfilled on first touch.
		if entry.GroupID != nil && entry.GroupEntryID == nil {
			entry.GroupEntryID = &entry.ID
			if err := tx.UpdateEntry(ctx, entry); err != nil {
				return err
			}
		}

		photoURL := newPhotoURL
		if photoURL == "" {
			photoURL = entry.PhotoURL
		} else if entry.PhotoURL != "" && entry.PhotoURL != photoURL {
			oldPhoto = entry.PhotoURL
		}

		switch {
		case !sameGroup(origGroupID, req.GroupID):
			err = s.applyGroupChange(ctx, tx, entry, origGroupID, req, photoURL, origTotal)
		case origGroupID != nil:
			err = s.applyGroupContentUpdate(ctx, tx, entry, req, photoURL)
		default:
			err = s.applyPersonalUpdate(ctx, tx, entry, req, photoURL, origTotal)
		}
		if err != nil {
			return err
		}

		items, err := loadDrinkItems(ctx, tx, entry.ID)
		if err != nil {
			return err
		}
		out = &core.EntryWithDrinks{Entry: *entry, Drinks: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deletePhoto(ctx, oldPhoto)
	s.summary.Clear()
	s.metrics.EntriesUpdated.Inc()
	s.logger.InfoContext(ctx, "entry updated",
		log.FieldEntryID, id,
		log.FieldUserID, req.UserID,
		log.FieldTotalPrice, req.TotalPrice,
	)
	return out, nil
}

// applyGroupChange handles personal-to-group, group-to-personal and
// group-to-other-group updates: tear the old share set down completely, then
// rebuild under the new membership.
func (s *EntryService) applyGroupChange(ctx context.Context, tx storage.Tx, entry *core.Entry, origGroupID *int64, req core.EntryRequest, photoURL string, origTotal int64) error {
	if origGroupID != nil {
		related, err := s.relatedEntries(ctx, tx, entry, *origGroupID)
		if err != nil {
			return err
		}
		var setTotal int64
		for _, rel := range related {
			setTotal += rel.TotalPrice
		}
		if _, err := tx.GetGroup(ctx, *origGroupID); err != nil {
			return err
		}
		if err := tx.AddGroupPaid(ctx, *origGroupID, -setTotal); err != nil {
			return err
		}
		for _, rel := range related {
			if rel.ID == entry.ID {
				continue
			}
			if err := s.reverseMemberPaid(ctx, tx, rel.UserID, rel.TotalPrice); err != nil {
				return err
			}
			if err := tx.DeleteDrinkLinesByEntry(ctx, rel.ID); err != nil {
				return err
			}
			if err := tx.DeleteEntry(ctx, rel.ID); err != nil {
				return err
			}
		}
	}

	if _, err := tx.GetMember(ctx, req.UserID); err != nil {
		return err
	}
	if err := tx.AddMemberPaid(ctx, req.UserID, -origTotal); err != nil {
		return err
	}

	if req.GroupID == nil {
		entry.GroupID = nil
		entry.GroupEntryID = nil
		entry.DrinkingDate = core.Day(req.DrinkingDate)
		entry.Memo = req.Memo
		entry.TotalPrice = req.TotalPrice
		entry.PhotoURL = photoURL
		entry.IsGroupShared = false
		if err := tx.UpdateEntry(ctx, entry); err != nil {
			return err
		}
		if err := tx.AddMemberPaid(ctx, req.UserID, req.TotalPrice); err != nil {
			return err
		}
		return s.replaceDrinkLines(ctx, tx, entry, req.Drinks, 1)
	}

	if _, err := tx.GetGroup(ctx, *req.GroupID); err != nil {
		return err
	}
	roster, err := tx.GroupMemberIDs(ctx, *req.GroupID)
	if err != nil {
		return err
	}
	perMember := calculator.SharePrice(req.TotalPrice, len(roster))

	if err := tx.AddGroupPaid(ctx, *req.GroupID, req.TotalPrice); err != nil {
		return err
	}

	entry.GroupID = req.GroupID
	entry.DrinkingDate = core.Day(req.DrinkingDate)
	entry.Memo = req.Memo
	entry.TotalPrice = perMember
	entry.PhotoURL = photoURL
	entry.IsGroupShared = false
	if entry.GroupEntryID == nil {
		entry.GroupEntryID = &entry.ID
	}
	if err := tx.UpdateEntry(ctx, entry); err != nil {
		return err
	}
	if err := tx.AddMemberPaid(ctx, req.UserID, perMember); err != nil {
		return err
	}
	if err := s.replaceDrinkLines(ctx, tx, entry, req.Drinks, len(roster)); err != nil {
		return err
	}

	for _, memberID := range roster {
		if memberID == req.UserID {
			continue
		}
		if _, err := tx.GetMember(ctx, memberID); err != nil {
			return fmt.Errorf("group member %d: %w", memberID, err)
		}
		if err := tx.AddMemberPaid(ctx, memberID, perMember); err != nil {
			return err
		}

		mirror := &core.Entry{
			UserID:        memberID,
			GroupID:       req.GroupID,
			GroupEntryID:  &entry.ID,
			DrinkingDate:  core.Day(req.DrinkingDate),
			Memo:          req.Memo,
			TotalPrice:    perMember,
			PhotoURL:      photoURL,
			CreatedAt:     time.Now().UTC(),
			IsGroupShared: true,
		}
		if err := tx.CreateEntry(ctx, mirror); err != nil {
			return err
		}
		if err := s.replaceDrinkLines(ctx, tx, mirror, req.Drinks, len(roster)); err != nil {
			return err
		}
	}
	return nil
}

// applyGroupContentUpdate rewrites the whole share set in place: same group,
// new content. The member count is the size of the existing set, not the
// current roster, so shares stay consistent with the rows that exist.
func (s *EntryService) applyGroupContentUpdate(ctx context.Context, tx storage.Tx, entry *core.Entry, req core.EntryRequest, photoURL string) error {
	groupID := *entry.GroupID

	var related []core.Entry
	if entry.GroupEntryID != nil {
		var err error
		related, err = tx.EntriesByShareID(ctx, *entry.GroupEntryID)
		if err != nil {
			return err
		}
	} else {
		var err error
		related, err = tx.EntriesByGroupAndDate(ctx, groupID, entry.DrinkingDate)
		if err != nil {
			return err
		}
		for i := range related {
			if related[i].GroupEntryID == nil {
				related[i].GroupEntryID = &entry.ID
				if err := tx.UpdateEntry(ctx, &related[i]); err != nil {
					return err
				}
			}
		}
	}

	memberCount := len(related)
	var setTotal int64
	for _, rel := range related {
		setTotal += rel.TotalPrice
	}

	if _, err := tx.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if err := tx.AddGroupPaid(ctx, groupID, req.TotalPrice-setTotal); err != nil {
		return err
	}

	perMember := calculator.SharePrice(req.TotalPrice, memberCount)
	for i := range related {
		rel := &related[i]
		if err := s.adjustMemberPaid(ctx, tx, rel.UserID, perMember-rel.TotalPrice); err != nil {
			return err
		}

		rel.DrinkingDate = core.Day(req.DrinkingDate)
		rel.Memo = req.Memo
		rel.TotalPrice = perMember
		rel.PhotoURL = photoURL
		if err := tx.UpdateEntry(ctx, rel); err != nil {
			return err
		}
		if err := s.replaceDrinkLines(ctx, tx, rel, req.Drinks, memberCount); err != nil {
			return err
		}

		if rel.ID == entry.ID {
			*entry = *rel
		}
	}
	return nil
}

func (s *EntryService) applyPersonalUpdate(ctx context.Context, tx storage.Tx, entry *core.Entry, req core.EntryRequest, photoURL string, origTotal int64) error {
	if _, err := tx.GetMember(ctx, req.UserID); err != nil {
		return err
	}
	if err := tx.AddMemberPaid(ctx, req.UserID, req.TotalPrice-origTotal); err != nil {
		return err
	}

	entry.DrinkingDate = core.Day(req.DrinkingDate)
	entry.Memo = req.Memo
	entry.TotalPrice = req.TotalPrice
	entry.PhotoURL = photoURL
	if err := tx.UpdateEntry(ctx, entry); err != nil {
		return err
	}
	return s.replaceDrinkLines(ctx, tx, entry, req.Drinks, 1)
}

// Delete removes an entry and reverses its ledger effects. Deleting an
// anchor cascades over the whole share set; deleting a mirror removes only
// that row, though the group ledger still gives back the full set total.
func (s *EntryService) Delete(ctx context.Context, id int64) error {
	var (
		photo   string
		deleted int
	)
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		entry, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		grouped := entry.GroupID != nil

		var related []core.Entry
		if grouped && entry.GroupEntryID != nil {
			related, err = tx.EntriesByShareID(ctx, *entry.GroupEntryID)
			if err != nil {
				return err
			}
			if _, err := tx.GetGroup(ctx, *entry.GroupID); err != nil {
				return err
			}
			var setTotal int64
			for _, rel := range related {
				setTotal += rel.TotalPrice
			}
			if err := tx.AddGroupPaid(ctx, *entry.GroupID, -setTotal); err != nil {
				return err
			}
		}

		if err := s.reverseMemberPaid(ctx, tx, entry.UserID, entry.TotalPrice); err != nil {
			return err
		}
		if err := tx.DeleteDrinkLinesByEntry(ctx, entry.ID); err != nil {
			return err
		}
		photo = entry.PhotoURL
		if err := tx.DeleteEntry(ctx, entry.ID); err != nil {
			return err
		}
		deleted = 1

		if grouped && len(related) > 0 && !entry.IsGroupShared {
			for _, rel := range related {
				if rel.ID == entry.ID {
					continue
				}
				if err := s.reverseMemberPaid(ctx, tx, rel.UserID, rel.TotalPrice); err != nil {
					return err
				}
				if err := tx.DeleteDrinkLinesByEntry(ctx, rel.ID); err != nil {
					return err
				}
				if err := tx.DeleteEntry(ctx, rel.ID); err != nil {
					return err
				}
				deleted++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.deletePhoto(ctx, photo)
	s.summary.Clear()
	s.metrics.EntriesDeleted.Add(float64(deleted))
	s.logger.InfoContext(ctx, "entry deleted",
		log.FieldEntryID, id,
		"cascade_count", deleted,
	)
	return nil
}

// relatedEntries resolves the share set of a grouped entry, falling back to
// the group-and-date lookup for rows that predate share ids.
func (s *EntryService) relatedEntries(ctx context.Context, tx storage.Tx, entry *core.Entry, groupID int64) ([]core.Entry, error) {
	if entry.GroupEntryID != nil {
		return tx.EntriesByShareID(ctx, *entry.GroupEntryID)
	}
	return tx.EntriesByGroupAndDate(ctx, groupID, entry.DrinkingDate)
}

// reverseMemberPaid subtracts a reversed amount from a member's ledger.
// Members deleted since the entry was written are skipped, not fatal.
func (s *EntryService) reverseMemberPaid(ctx context.Context, tx storage.Tx, memberID, amount int64) error {
	return s.adjustMemberPaid(ctx, tx, memberID, -amount)
}

func (s *EntryService) adjustMemberPaid(ctx context.Context, tx storage.Tx, memberID, delta int64) error {
	err := tx.AddMemberPaid(ctx, memberID, delta)
	if errors.Is(err, core.ErrNotFound) {
		s.logger.WarnContext(ctx, "skipping ledger adjustment for missing member",
			log.FieldUserID, memberID)
		return nil
	}
	return err
}

// writeDrinkLines stores the author's drink lines, dividing quantities when
// the entry is grouped. Unknown drink types are skipped.
func (s *EntryService) writeDrinkLines(ctx context.Context, tx storage.Tx, entry *core.Entry, drinks []core.DrinkRequest, memberCount int) ([]core.DrinkItem, error) {
	var items []core.DrinkItem
	for _, d := range drinks {
		drink, err := tx.DrinkByType(ctx, d.Type)
		if err != nil {
			return nil, err
		}
		if drink == nil {
			s.logger.DebugContext(ctx, "skipping unknown drink type", log.FieldDrinkType, d.Type)
			continue
		}

		quantity := d.Quantity
		if entry.GroupID != nil {
			quantity = calculator.ShareQuantity(d.Quantity, memberCount)
		}
		line := &core.DrinkLine{EntryID: entry.ID, DrinkID: drink.ID, Quantity: quantity}
		if err := tx.AddDrinkLine(ctx, line); err != nil {
			return nil, err
		}
		items = append(items, core.DrinkItem{
			DrinkID:  drink.ID,
			Name:     drink.Name,
			Type:     drink.Type,
			Quantity: quantity,
		})
	}
	return items, nil
}

// replaceDrinkLines drops an entry's drink lines and rebuilds them from the
// request list.
func (s *EntryService) replaceDrinkLines(ctx context.Context, tx storage.Tx, entry *core.Entry, drinks []core.DrinkRequest, memberCount int) error {
	if err := tx.DeleteDrinkLinesByEntry(ctx, entry.ID); err != nil {
		return err
	}
	_, err := s.writeDrinkLines(ctx, tx, entry, drinks, memberCount)
	return err
}

func (s *EntryService) withDrinks(ctx context.Context, list func(tx storage.Tx) ([]core.Entry, error)) ([]core.EntryWithDrinks, error) {
	var out []core.EntryWithDrinks
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		entries, err := list(tx)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			items, err := loadDrinkItems(ctx, tx, entry.ID)
			if err != nil {
				return err
			}
			out = append(out, core.EntryWithDrinks{Entry: entry, Drinks: items})
		}
		return nil
	})
	return out, err
}

// deletePhoto removes an image after a successful commit. Failures are
// logged, not returned: the database state already changed.
func (s *EntryService) deletePhoto(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete photo",
			log.FieldPhotoURL, url,
			log.FieldError, err,
		)
	}
}

// loadDrinkItems joins an entry's drink lines with the catalog.
func loadDrinkItems(ctx context.Context, tx storage.Tx, entryID int64) ([]core.DrinkItem, error) {
	lines, err := tx.DrinkLinesByEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	catalog, err := tx.ListDrinks(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]core.Drink, len(catalog))
	for _, d := range catalog {
		byID[d.ID] = d
	}

	items := make([]core.DrinkItem, 0, len(lines))
	for _, line := range lines {
		drink := byID[line.DrinkID]
		items = append(items, core.DrinkItem{
			DrinkID:  line.DrinkID,
			Name:     drink.Name,
			Type:     drink.Type,
			Quantity: line.Quantity,
		})
	}
	return items, nil
}

func sameGroup(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
