package main

import (
	"campus/internal/databases"
	"campus/internal/env"
	"flag"
	"log"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	path := flag.String("path", env.GetEnv(env.EnvDatabasePath, "./campus.db"), "path to the database file")
	down := flag.Int("down", 0, "number of migrations to roll back")
	version := flag.Bool("version", false, "print the current schema version and exit")
	flag.Parse()

	db, err := databases.Open(*path)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	switch {
	case *version:
		v, dirty, err := databases.Version(db)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Schema version %d (dirty: %t) for %s", v, dirty, *path)
		return
	case *down > 0:
		if err := databases.Rollback(db, *down); err != nil {
			log.Fatal(err)
		}
		log.Printf("Rolled back %d migration(s) on %s", *down, *path)
		return
	}

	if err := databases.Migrate(db); err != nil {
		log.Fatal(err)
	}
	log.Println("Database migration complete for:", *path)
}

/*
This project is the monolithic backend API for the campus services team. Access to campus data and helper endpoints to integrate with our apps.
API Copyright (C) 2025 OpenSourceDUTH
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
