// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package refdata

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// init registers the idvalues binding rule with gin's validator engine.
// The rule rejects identifier maps that are empty or carry blank values,
// so a request like {"idValue": {"instrumentId": ""}} fails binding
// instead of surfacing as a confusing not-found downstream.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("idvalues", validIDValues)
	}
}

func validIDValues(fl validator.FieldLevel) bool {
	m, ok := fl.Field().Interface().(map[string]string)
	if !ok || len(m) == 0 {
		return false
	}
	for _, val := range m {
		if strings.TrimSpace(val) == "" {
			return false
		}
	}
	return true
}
