package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"catalogd/internal/catalog"
)

const masterColumns = "id, product_type, product_name, brand, manufacturer, approval_number, specification, barcode, mah, dosage_form, product_technical_requirements_number, registration_classification, main_ingredients, execution_standard, created_at, updated_at"

func scanMaster(scanner interface{ Scan(dest ...any) error }) (*catalog.Record, error) {
	var (
		id          int64
		productType string
		name        sql.NullString
		brand       sql.NullString
		maker       sql.NullString
		approval    sql.NullString
		spec        sql.NullString
		barcode     sql.NullString
		mah         sql.NullString
		dosage      sql.NullString
		techReq     sql.NullString
		regClass    sql.NullString
		ingredients sql.NullString
		standard    sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&productType,
		&name,
		&brand,
		&maker,
		&approval,
		&spec,
		&barcode,
		&mah,
		&dosage,
		&techReq,
		&regClass,
		&ingredients,
		&standard,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &catalog.Record{
		Fields: catalog.Fields{
			ProductType:                       productType,
			ProductName:                       name.String,
			Brand:                             brand.String,
			Manufacturer:                      maker.String,
			ApprovalNumber:                    approval.String,
			Specification:                     spec.String,
			Barcode:                           barcode.String,
			MAH:                               mah.String,
			DosageForm:                        dosage.String,
			ProductTechnicalRequirementsNumber: techReq.String,
			RegistrationClassification:        regClass.String,
			MainIngredients:                   ingredients.String,
			ExecutionStandard:                 standard.String,
		},
		ID: id,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}

func masterFieldArgs(fields catalog.Fields) []any {
	return []any{
		fields.ProductType,
		nullableString(fields.ProductName),
		nullableString(fields.Brand),
		nullableString(fields.Manufacturer),
		nullableString(fields.ApprovalNumber),
		nullableString(fields.Specification),
		nullableString(fields.Barcode),
		nullableString(fields.MAH),
		nullableString(fields.DosageForm),
		nullableString(fields.ProductTechnicalRequirementsNumber),
		nullableString(fields.RegistrationClassification),
		nullableString(fields.MainIngredients),
		nullableString(fields.ExecutionStandard),
	}
}

// CreateMaster inserts a new master record from validated fields.
func (s *Store) CreateMaster(ctx context.Context, fields catalog.Fields) (*catalog.Record, error) {
	if fields.ProductType == "" {
		return nil, errors.New("product type is required")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	args := masterFieldArgs(fields)
	args = append(args, timestamp, timestamp)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO master_records (
            product_type, product_name, brand, manufacturer, approval_number,
            specification, barcode, mah, dosage_form,
            product_technical_requirements_number, registration_classification,
            main_ingredients, execution_standard, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("insert master record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.MasterByID(ctx, id)
}

// MasterByID fetches a master record by identifier.
func (s *Store) MasterByID(ctx context.Context, id int64) (*catalog.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+masterColumns+` FROM master_records WHERE id = ?`, id)
	record, err := scanMaster(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get master record: %w", err)
	}
	return record, nil
}

// UpdateMaster persists changes to an existing master record.
func (s *Store) UpdateMaster(ctx context.Context, record *catalog.Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	record.UpdatedAt = time.Now().UTC()

	args := masterFieldArgs(record.Fields)
	args = append(args, record.UpdatedAt.Format(time.RFC3339Nano), record.ID)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE master_records
         SET product_type = ?, product_name = ?, brand = ?, manufacturer = ?,
             approval_number = ?, specification = ?, barcode = ?, mah = ?,
             dosage_form = ?, product_technical_requirements_number = ?,
             registration_classification = ?, main_ingredients = ?,
             execution_standard = ?, updated_at = ?
         WHERE id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("update master record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("master record %d not found", record.ID)
	}
	return nil
}

// MastersByApprovalNumber returns records carrying the exact approval number.
func (s *Store) MastersByApprovalNumber(ctx context.Context, approvalNumber string) ([]*catalog.Record, error) {
	if approvalNumber == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+masterColumns+` FROM master_records WHERE approval_number = ? ORDER BY id`,
		approvalNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("query by approval number: %w", err)
	}
	defer rows.Close()
	return collectMasters(rows)
}

// MasterPool returns the most recent records for fuzzy comparison. The scan
// is bounded so matching stays cheap as the catalog grows.
func (s *Store) MasterPool(ctx context.Context, limit int) ([]*catalog.Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+masterColumns+` FROM master_records ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query master pool: %w", err)
	}
	defer rows.Close()
	return collectMasters(rows)
}

// ListMasters returns master records, optionally filtered by product type.
// A non-positive limit returns all matching rows.
func (s *Store) ListMasters(ctx context.Context, productType string, limit int) ([]*catalog.Record, error) {
	query := `SELECT ` + masterColumns + ` FROM master_records`
	args := []any{}
	if productType != "" {
		query += ` WHERE product_type = ?`
		args = append(args, productType)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list master records: %w", err)
	}
	defer rows.Close()
	return collectMasters(rows)
}

// MasterCount returns the number of master records.
func (s *Store) MasterCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM master_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count master records: %w", err)
	}
	return count, nil
}

func collectMasters(rows *sql.Rows) ([]*catalog.Record, error) {
	var records []*catalog.Record
	for rows.Next() {
		record, err := scanMaster(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
