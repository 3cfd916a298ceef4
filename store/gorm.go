package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORM-backed implementations for self-hosted deployments (sqlite or postgres).
// Documents keep their wire shape: the image arrays live in JSON columns, and Patch
// writes translate to column-level UPDATEs so merge semantics hold.

type gormReview struct {
	ID                 string `gorm:"primaryKey"`
	UsuarioID          string `gorm:"index"`
	Estado             string
	MotivoRechazo      string
	VisibleParaAutor   bool
	Imagenes           datatypes.JSON
	ImagenesProcesadas datatypes.JSON
	ImagenesPendientes datatypes.JSON
	NumImagenes        int
	TotalImagenes      int
	IPCreacion         string
	Creado             time.Time
	Actualizado        time.Time
}

func (gormReview) TableName() string { return "resenas" }

type gormUser struct {
	ID           string `gorm:"primaryKey"`
	Baneado      bool
	BaneadoDesde *time.Time
	MotivoBaneo  string
}

func (gormUser) TableName() string { return "usuarios" }

type gormNotice struct {
	ID        string `gorm:"primaryKey"`
	UsuarioID string `gorm:"index:idx_avisos_usuario_expira"`
	Tipo      string
	Motivo    string
	ResenaID  string
	Fecha     time.Time
	ExpiraEn  time.Time `gorm:"index:idx_avisos_usuario_expira"`
	Estado    string
}

func (gormNotice) TableName() string { return "avisos" }

type gormBannedIP struct {
	ID           string `gorm:"primaryKey"`
	IP           string
	BaneadaDesde time.Time
}

func (gormBannedIP) TableName() string { return "ips_baneadas" }

// MigrateGorm creates or updates the backing tables.
func MigrateGorm(db *gorm.DB) error {
	return db.AutoMigrate(&gormReview{}, &gormUser{}, &gormNotice{}, &gormBannedIP{})
}

type GormReviewStore struct {
	DB *gorm.DB
}

var _ ReviewStore = (*GormReviewStore)(nil)

func (s *GormReviewStore) Get(ctx context.Context, id string) (*Review, error) {
	var row gormReview
	if err := s.DB.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return reviewFromRow(&row)
}

func (s *GormReviewStore) Patch(ctx context.Context, id string, p Patch) error {
	cols, err := reviewPatchColumns(p)
	if err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Model(&gormReview{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormReviewStore) Update(ctx context.Context, id string, fn func(r *Review) (Patch, error)) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		// sqlite has no row locks; its single write connection serializes instead
		if tx.Dialector.Name() != "sqlite" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var row gormReview
		if err := q.First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		r, err := reviewFromRow(&row)
		if err != nil {
			return err
		}
		p, err := fn(r)
		if err != nil {
			return err
		}
		if p == nil {
			return nil
		}
		cols, err := reviewPatchColumns(p)
		if err != nil {
			return err
		}
		return tx.Model(&gormReview{}).Where("id = ?", id).Updates(cols).Error
	})
}

func (s *GormReviewStore) ListByUser(ctx context.Context, userID string) ([]*Review, error) {
	var rows []gormReview
	if err := s.DB.WithContext(ctx).Where("usuario_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*Review, 0, len(rows))
	for i := range rows {
		r, err := reviewFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

type GormUserStore struct {
	DB *gorm.DB
}

var _ UserStore = (*GormUserStore)(nil)

func (s *GormUserStore) Get(ctx context.Context, id string) (*User, error) {
	var row gormUser
	if err := s.DB.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &User{ID: row.ID, Baneado: row.Baneado, BaneadoDesde: row.BaneadoDesde, MotivoBaneo: row.MotivoBaneo}, nil
}

func (s *GormUserStore) Patch(ctx context.Context, id string, p Patch) error {
	row := gormUser{ID: id}
	cols := map[string]any{}
	for k, v := range p {
		switch k {
		case "baneado":
			row.Baneado = v.(bool)
			cols["baneado"] = v
		case "baneadoDesde":
			t := v.(time.Time)
			row.BaneadoDesde = &t
			cols["baneado_desde"] = t
		case "motivoBaneo":
			row.MotivoBaneo = v.(string)
			cols["motivo_baneo"] = v
		default:
			return fmt.Errorf("unsupported user patch field: %s", k)
		}
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(cols),
	}).Create(&row).Error
}

type GormNoticeStore struct {
	DB *gorm.DB
}

var _ NoticeStore = (*GormNoticeStore)(nil)

func (s *GormNoticeStore) Add(ctx context.Context, n *Notice) (string, error) {
	row := gormNotice{
		ID:        uuid.NewString(),
		UsuarioID: n.UsuarioID,
		Tipo:      n.Tipo,
		Motivo:    n.Motivo,
		ResenaID:  n.ResenaID,
		Fecha:     n.Fecha,
		ExpiraEn:  n.ExpiraEn,
		Estado:    n.Estado,
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return row.ID, nil
}

func (s *GormNoticeStore) CountActive(ctx context.Context, userID string, now time.Time) (int, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&gormNotice{}).
		Where("usuario_id = ? AND expira_en > ?", userID, now).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

type GormBannedIPStore struct {
	DB *gorm.DB
}

var _ BannedIPStore = (*GormBannedIPStore)(nil)

func (s *GormBannedIPStore) Upsert(ctx context.Context, rec *BannedIP) error {
	row := gormBannedIP{ID: rec.ID, IP: rec.IP, BaneadaDesde: rec.BaneadaDesde}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"ip":            rec.IP,
			"baneada_desde": rec.BaneadaDesde,
		}),
	}).Create(&row).Error
}

func reviewFromRow(row *gormReview) (*Review, error) {
	r := &Review{
		ID:               row.ID,
		UsuarioID:        row.UsuarioID,
		Estado:           row.Estado,
		MotivoRechazo:    row.MotivoRechazo,
		VisibleParaAutor: row.VisibleParaAutor,
		NumImagenes:      row.NumImagenes,
		TotalImagenes:    row.TotalImagenes,
		IPCreacion:       row.IPCreacion,
		Creado:           row.Creado,
		Actualizado:      row.Actualizado,
	}
	for _, col := range []struct {
		raw  datatypes.JSON
		dest any
	}{
		{row.Imagenes, &r.Imagenes},
		{row.ImagenesProcesadas, &r.ImagenesProcesadas},
		{row.ImagenesPendientes, &r.ImagenesPendientes},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return nil, fmt.Errorf("decoding review %s: %w", row.ID, err)
		}
	}
	return r, nil
}

func reviewPatchColumns(p Patch) (map[string]any, error) {
	cols := make(map[string]any, len(p))
	for k, v := range p {
		switch k {
		case "estado":
			cols["estado"] = v
		case "motivoRechazo":
			cols["motivo_rechazo"] = v
		case "visibleParaAutor":
			cols["visible_para_autor"] = v
		case "actualizado":
			cols["actualizado"] = v
		case "imagenes", "imagenesProcesadas", "imagenesPendientes":
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encoding review patch field %s: %w", k, err)
			}
			col := map[string]string{
				"imagenes":           "imagenes",
				"imagenesProcesadas": "imagenes_procesadas",
				"imagenesPendientes": "imagenes_pendientes",
			}[k]
			cols[col] = datatypes.JSON(raw)
		default:
			return nil, fmt.Errorf("unsupported review patch field: %s", k)
		}
	}
	return cols, nil
}
