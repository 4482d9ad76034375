package env

import (
	"os"
	"strconv"
	"time"
)

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetLocation loads an IANA time zone name, falling back to defaultValue when
// the variable is unset or names an unknown zone.
func GetLocation(key string, defaultValue *time.Location) *time.Location {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if loc, err := time.LoadLocation(value); err == nil {
			return loc
		}
	}
	return defaultValue
}

// Server and storage
const (
	EnvHTTPAddr     = "HTTP_ADDR"
	EnvDatabasePath = "DATABASE_PATH"
	EnvTimezone     = "TIMEZONE"
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogFormat    = "LOG_FORMAT"
)

// Refectory lifecycle
const (
	EnvCronDaily           = "CRON_DAILY"
	EnvCronServiceOpening  = "CRON_SERVICE_OPENING"
	EnvCronWeekly          = "CRON_WEEKLY"
	EnvJobTimeout          = "JOB_TIMEOUT"
	EnvRefectoryAcceptOpen = "REFECTORY_ACCEPT_WHILE_OPEN"
)

// Mail delivery
const (
	EnvSMTPHost     = "SMTP_HOST"
	EnvSMTPPort     = "SMTP_PORT"
	EnvSMTPUsername = "SMTP_USERNAME"
	EnvSMTPPassword = "SMTP_PASSWORD"
	EnvMailFrom     = "MAIL_FROM"
	EnvMailSubject  = "MAIL_REPORT_SUBJECT"
)

// Auth bootstrap
const (
	EnvBootstrapAdminEmail = "BOOTSTRAP_ADMIN_EMAIL"
	EnvBootstrapAdminName  = "BOOTSTRAP_ADMIN_NAME"
)

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
