package handler

import (
	"net/http"
	"strconv"

	"github.com/nouridin/supershop/internal/domain"
)

// queryLocation parses world/x/y/z query parameters into a Location,
// responding with 400 on failure.
func queryLocation(w http.ResponseWriter, r *http.Request) (domain.Location, bool) {
	q := r.URL.Query()

	world := q.Get("world")
	if world == "" {
		respondError(w, http.StatusBadRequest, "World name is required")
		return domain.Location{}, false
	}

	coords := make([]int, 3)
	for i, name := range []string{"x", "y", "z"} {
		value, err := strconv.Atoi(q.Get(name))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid coordinate "+name)
			return domain.Location{}, false
		}
		coords[i] = value
	}

	return domain.Location{World: world, X: coords[0], Y: coords[1], Z: coords[2]}, true
}
