package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/GenACT-Africa/swahiba-web-sub001/internal/models"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) ListAvailablePacks(ctx context.Context, packType string) ([]models.Pack, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pack_id, pack_no, pack_type, owner_id, active, created_at, claimed_at
		FROM packs
		WHERE active AND owner_id IS NULL AND pack_type = $1
		ORDER BY created_at ASC
	`, packType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packs []models.Pack
	for rows.Next() {
		pack, err := scanPack(rows)
		if err != nil {
			return nil, err
		}
		packs = append(packs, pack)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return packs, nil
}

func (s *Store) ListPackItems(ctx context.Context, packIDs []string) ([]models.PackItem, error) {
	if len(packIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT i.item_id, i.pack_id, i.product_id, i.quantity, i.free,
			p.name, p.price_cents, COALESCE(p.image_url, ''), COALESCE(p.order_url, '')
		FROM pack_items i
		JOIN products p ON p.product_id = i.product_id
		WHERE i.pack_id = ANY($1::uuid[])
		ORDER BY i.pack_id, i.item_id
	`, packIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.PackItem
	for rows.Next() {
		var item models.PackItem
		if err := rows.Scan(&item.ItemID, &item.PackID, &item.ProductID, &item.Quantity, &item.Free,
			&item.ProductName, &item.PriceCents, &item.ImageURL, &item.OrderURL); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ClaimPack runs the check-and-set as one statement so that two callers
// racing on the same pack number can never both observe the row unowned.
func (s *Store) ClaimPack(ctx context.Context, input store.ClaimPackInput) (models.Pack, bool, error) {
	claimedAt := input.ClaimedAt
	if claimedAt.IsZero() {
		claimedAt = time.Now().UTC()
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE packs
		SET owner_id = $1, claimed_at = $2
		WHERE pack_no = $3 AND active AND owner_id IS NULL
		RETURNING pack_id, pack_no, pack_type, owner_id, active, created_at, claimed_at
	`, input.OwnerID, claimedAt, input.PackNo)

	pack, err := scanPack(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Pack{}, false, nil
		}
		return models.Pack{}, false, err
	}
	return pack, true, nil
}

func (s *Store) ListOpenRequests(ctx context.Context, swahibaID string) ([]models.ServiceRequest, error) {
	// "open" is the absence of a terminal status, so NULL must match too.
	rows, err := s.pool.Query(ctx, `
		SELECT request_id, swahiba_id, requester_id, status, need, nickname, location,
			description, channel, phone, conversation_id, created_at
		FROM service_requests
		WHERE swahiba_id = $1 AND (status IS NULL OR status <> 'closed')
		ORDER BY created_at DESC
	`, swahibaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.ServiceRequest
	for rows.Next() {
		var req models.ServiceRequest
		var requesterID sql.NullString
		var status sql.NullString
		var need, nickname, location, description, channel, phone sql.NullString
		var conversationID sql.NullString
		if err := rows.Scan(&req.RequestID, &req.SwahibaID, &requesterID, &status, &need, &nickname,
			&location, &description, &channel, &phone, &conversationID, &req.CreatedAt); err != nil {
			return nil, err
		}
		req.RequesterID = nullStringPtr(requesterID)
		req.Status = nullStringPtr(status)
		req.Need = need.String
		req.Nickname = nickname.String
		req.Location = location.String
		req.Description = description.String
		req.Channel = channel.String
		req.Phone = phone.String
		req.ConversationID = nullStringPtr(conversationID)
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, device_id, email, role, banned, created_at
		FROM profiles
		WHERE user_id = $1
	`, userID)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, store.ErrProfileNotFound
		}
		return models.Profile{}, err
	}
	return profile, nil
}

func (s *Store) EnsureIdentity(ctx context.Context, deviceID string) (models.Profile, error) {
	// The no-op DO UPDATE makes RETURNING yield the row on both the insert
	// and the conflict path, so concurrent callers for one device all get
	// the same single profile.
	row := s.pool.QueryRow(ctx, `
		INSERT INTO profiles (user_id, device_id, role)
		VALUES ($1, $2, 'user')
		ON CONFLICT (device_id) DO UPDATE SET device_id = EXCLUDED.device_id
		RETURNING user_id, device_id, email, role, banned, created_at
	`, uuid.NewString(), deviceID)
	return scanProfile(row)
}

func (s *Store) Login(ctx context.Context, input store.LoginInput) (models.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, device_id, email, role, banned, created_at, password_hash
		FROM profiles
		WHERE email = $1
	`, input.Email)

	var profile models.Profile
	var deviceID, email, passwordHash sql.NullString
	if err := row.Scan(&profile.UserID, &deviceID, &email, &profile.Role, &profile.Banned,
		&profile.CreatedAt, &passwordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, store.ErrInvalidCredentials
		}
		return models.Profile{}, err
	}
	if !passwordHash.Valid {
		return models.Profile{}, store.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash.String), []byte(input.Password)); err != nil {
		return models.Profile{}, store.ErrInvalidCredentials
	}
	profile.DeviceID = nullStringPtr(deviceID)
	profile.Email = nullStringPtr(email)
	return profile, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT notification_id, user_id, type, title, body, ref_table, ref_id, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		var body, refTable, refID sql.NullString
		if err := rows.Scan(&n.NotificationID, &n.UserID, &n.Type, &n.Title, &body,
			&refTable, &refID, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Body = body.String
		n.RefTable = refTable.String
		n.RefID = nullStringPtr(refID)
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE notification_id = $1 AND user_id = $2 AND read = FALSE
	`, notificationID, userID)
	return err
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE user_id = $1 AND read = FALSE
	`, userID)
	return err
}

func scanPack(row pgx.Row) (models.Pack, error) {
	var pack models.Pack
	var ownerID sql.NullString
	var claimedAt sql.NullTime
	if err := row.Scan(&pack.PackID, &pack.PackNo, &pack.PackType, &ownerID, &pack.Active,
		&pack.CreatedAt, &claimedAt); err != nil {
		return models.Pack{}, err
	}
	pack.OwnerID = nullStringPtr(ownerID)
	pack.ClaimedAt = nullTimePtr(claimedAt)
	return pack, nil
}

func scanProfile(row pgx.Row) (models.Profile, error) {
	var profile models.Profile
	var deviceID, email sql.NullString
	if err := row.Scan(&profile.UserID, &deviceID, &email, &profile.Role, &profile.Banned, &profile.CreatedAt); err != nil {
		return models.Profile{}, err
	}
	profile.DeviceID = nullStringPtr(deviceID)
	profile.Email = nullStringPtr(email)
	return profile, nil
}

func nullStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	v := value.Time
	return &v
}
