package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"

	"github.com/udisondev/opdps/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

const operatorColumns = `
	id, name, class, damage_type,
	attack, attack_interval, attack_speed, crit_chance, crit_multiplier,
	defense_ignore, resistance_ignore, hit_count, targets,
	hp, defense, resistance, cost, block_count, heal_amount,
	COALESCE(skill, 'null'::jsonb), modifiers, created_at, updated_at`

// OperatorRepository stores operator profiles.
type OperatorRepository struct {
	pool *pgxpool.Pool
}

// NewOperatorRepository creates a new OperatorRepository.
func NewOperatorRepository(pool *pgxpool.Pool) *OperatorRepository {
	return &OperatorRepository{pool: pool}
}

// Create inserts rec and returns it with ID and timestamps set.
// A taken name yields *model.DuplicateOperatorError.
func (r *OperatorRepository) Create(ctx context.Context, rec model.OperatorRecord) (model.OperatorRecord, error) {
	args, err := operatorArgs(rec)
	if err != nil {
		return model.OperatorRecord{}, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO operators (
			name, class, damage_type,
			attack, attack_interval, attack_speed, crit_chance, crit_multiplier,
			defense_ignore, resistance_ignore, hit_count, targets,
			hp, defense, resistance, cost, block_count, heal_amount,
			skill, modifiers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING `+operatorColumns, args...)

	out, err := scanOperator(row)
	if err != nil {
		if isUniqueViolation(err) {
			return model.OperatorRecord{}, &model.DuplicateOperatorError{Name: rec.Profile.Name}
		}
		return model.OperatorRecord{}, fmt.Errorf("inserting operator %q: %w", rec.Profile.Name, err)
	}
	return out, nil
}

// Upsert inserts rec or replaces the operator with the same name.
func (r *OperatorRepository) Upsert(ctx context.Context, rec model.OperatorRecord) (model.OperatorRecord, error) {
	args, err := operatorArgs(rec)
	if err != nil {
		return model.OperatorRecord{}, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO operators (
			name, class, damage_type,
			attack, attack_interval, attack_speed, crit_chance, crit_multiplier,
			defense_ignore, resistance_ignore, hit_count, targets,
			hp, defense, resistance, cost, block_count, heal_amount,
			skill, modifiers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (name) DO UPDATE SET
			class = EXCLUDED.class,
			damage_type = EXCLUDED.damage_type,
			attack = EXCLUDED.attack,
			attack_interval = EXCLUDED.attack_interval,
			attack_speed = EXCLUDED.attack_speed,
			crit_chance = EXCLUDED.crit_chance,
			crit_multiplier = EXCLUDED.crit_multiplier,
			defense_ignore = EXCLUDED.defense_ignore,
			resistance_ignore = EXCLUDED.resistance_ignore,
			hit_count = EXCLUDED.hit_count,
			targets = EXCLUDED.targets,
			hp = EXCLUDED.hp,
			defense = EXCLUDED.defense,
			resistance = EXCLUDED.resistance,
			cost = EXCLUDED.cost,
			block_count = EXCLUDED.block_count,
			heal_amount = EXCLUDED.heal_amount,
			skill = EXCLUDED.skill,
			modifiers = EXCLUDED.modifiers,
			updated_at = now()
		RETURNING `+operatorColumns, args...)

	out, err := scanOperator(row)
	if err != nil {
		return model.OperatorRecord{}, fmt.Errorf("upserting operator %q: %w", rec.Profile.Name, err)
	}
	return out, nil
}

// Update replaces the operator with rec.Profile.ID.
// Returns false if no such operator exists.
func (r *OperatorRepository) Update(ctx context.Context, rec model.OperatorRecord) (model.OperatorRecord, bool, error) {
	args, err := operatorArgs(rec)
	if err != nil {
		return model.OperatorRecord{}, false, err
	}
	args = append(args, rec.Profile.ID)
	row := r.pool.QueryRow(ctx, `
		UPDATE operators SET
			name = $1, class = $2, damage_type = $3,
			attack = $4, attack_interval = $5, attack_speed = $6, crit_chance = $7, crit_multiplier = $8,
			defense_ignore = $9, resistance_ignore = $10, hit_count = $11, targets = $12,
			hp = $13, defense = $14, resistance = $15, cost = $16, block_count = $17, heal_amount = $18,
			skill = $19, modifiers = $20, updated_at = now()
		WHERE id = $21
		RETURNING `+operatorColumns, args...)

	out, err := scanOperator(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.OperatorRecord{}, false, nil
	}
	if err != nil {
		if isUniqueViolation(err) {
			return model.OperatorRecord{}, false, &model.DuplicateOperatorError{Name: rec.Profile.Name}
		}
		return model.OperatorRecord{}, false, fmt.Errorf("updating operator %d: %w", rec.Profile.ID, err)
	}
	return out, true, nil
}

// Get loads an operator by ID.
// Returns nil if the operator does not exist (not an error).
func (r *OperatorRepository) Get(ctx context.Context, id int64) (*model.OperatorRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+operatorColumns+` FROM operators WHERE id = $1`, id)
	rec, err := scanOperator(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying operator %d: %w", id, err)
	}
	return &rec, nil
}

// GetByName loads an operator by its unique name.
// Returns nil if the operator does not exist.
func (r *OperatorRepository) GetByName(ctx context.Context, name string) (*model.OperatorRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+operatorColumns+` FROM operators WHERE name = $1`, name)
	rec, err := scanOperator(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying operator %q: %w", name, err)
	}
	return &rec, nil
}

// List returns operators ordered by name. An empty class returns every class.
func (r *OperatorRepository) List(ctx context.Context, class string) ([]model.OperatorRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+operatorColumns+`
		FROM operators
		WHERE $1 = '' OR class = $1
		ORDER BY name`, class)
	if err != nil {
		return nil, fmt.Errorf("listing operators: %w", err)
	}
	defer rows.Close()

	var out []model.OperatorRecord
	for rows.Next() {
		rec, err := scanOperator(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning operator row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operator rows: %w", err)
	}
	return out, nil
}

// Delete removes an operator. Returns false if it did not exist.
func (r *OperatorRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM operators WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting operator %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func operatorArgs(rec model.OperatorRecord) ([]any, error) {
	p := rec.Profile
	var skill any
	if p.Skill != nil {
		b, err := json.Marshal(p.Skill)
		if err != nil {
			return nil, fmt.Errorf("encoding skill of %q: %w", p.Name, err)
		}
		skill = string(b)
	}
	mods := rec.Modifiers
	if mods == nil {
		mods = []model.Modifier{}
	}
	modsJSON, err := json.Marshal(mods)
	if err != nil {
		return nil, fmt.Errorf("encoding modifiers of %q: %w", p.Name, err)
	}

	return []any{
		p.Name, p.Class, p.DamageType.String(),
		p.Attack, p.AttackInterval, p.AttackSpeed, p.CritChance, p.CritMultiplier,
		p.DefenseIgnore, p.ResistanceIgnore, p.HitCount, p.Targets,
		p.HP, p.Defense, p.Resistance, p.Cost, p.BlockCount, p.HealAmount,
		skill, string(modsJSON),
	}, nil
}

func scanOperator(row pgx.Row) (model.OperatorRecord, error) {
	var (
		rec        model.OperatorRecord
		damageType string
		skillJSON  []byte
		modsJSON   []byte
	)
	p := &rec.Profile
	err := row.Scan(
		&p.ID, &p.Name, &p.Class, &damageType,
		&p.Attack, &p.AttackInterval, &p.AttackSpeed, &p.CritChance, &p.CritMultiplier,
		&p.DefenseIgnore, &p.ResistanceIgnore, &p.HitCount, &p.Targets,
		&p.HP, &p.Defense, &p.Resistance, &p.Cost, &p.BlockCount, &p.HealAmount,
		&skillJSON, &modsJSON, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return model.OperatorRecord{}, err
	}

	if p.DamageType, err = model.ParseDamageType(damageType); err != nil {
		return model.OperatorRecord{}, fmt.Errorf("operator %q: %w", p.Name, err)
	}
	if err := json.Unmarshal(skillJSON, &p.Skill); err != nil {
		return model.OperatorRecord{}, fmt.Errorf("decoding skill of %q: %w", p.Name, err)
	}
	if err := json.Unmarshal(modsJSON, &rec.Modifiers); err != nil {
		return model.OperatorRecord{}, fmt.Errorf("decoding modifiers of %q: %w", p.Name, err)
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
