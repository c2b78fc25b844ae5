package gtfs

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements create the tables used to store schedules when they are missing
var schemaStatements = []string{
	`create table if not exists data_set (
		id bigserial primary key,
		mode text not null,
		url text not null,
		e_tag text not null default '',
		last_modified_timestamp bigint not null default 0,
		downloaded_at timestamptz not null,
		saved_at timestamptz
	)`,
	`create table if not exists route (
		recorded_order bigserial,
		data_set_id bigint not null references data_set (id),
		route_id text not null,
		agency_id text,
		route_short_name text not null,
		route_long_name text,
		route_type integer not null default 3,
		primary key (data_set_id, route_id)
	)`,
	`create table if not exists trip (
		data_set_id bigint not null references data_set (id),
		trip_id text not null,
		route_id text not null,
		service_id text not null,
		trip_headsign text,
		direction_id integer,
		shape_id text,
		primary key (data_set_id, trip_id)
	)`,
	`create table if not exists stop_time (
		data_set_id bigint not null references data_set (id),
		trip_id text not null,
		stop_sequence integer not null,
		stop_id text not null,
		arrival_time integer,
		departure_time integer,
		primary key (data_set_id, trip_id, stop_sequence)
	)`,
	`create table if not exists stop (
		data_set_id bigint not null references data_set (id),
		stop_id text not null,
		stop_code text,
		stop_name text not null,
		stop_lat double precision not null,
		stop_lon double precision not null,
		primary key (data_set_id, stop_id)
	)`,
}

// CreateSchema creates any missing schedule tables
func CreateSchema(db sqlx.Execer) error {
	for _, statement := range schemaStatements {
		if _, err := db.Exec(statement); err != nil {
			return fmt.Errorf("unable to create schema: %w", err)
		}
	}
	return nil
}
