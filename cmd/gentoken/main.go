// Command gentoken prints a development bearer token for manual API testing.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/simple-event-calendar/server/internal/testauth"
)

func main() {
	userID := flag.Int64("user-id", 1, "id_user the token acts as")
	email := flag.String("email", "dev@localhost", "email claim")
	baseURL := flag.String("url", "http://localhost:8091", "server base URL for the example command")
	flag.Parse()

	token, err := testauth.DevJWTToken(*userID, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("JWT Token:")
	fmt.Println(token)
	fmt.Println("\nTest with:")
	fmt.Printf("curl -H 'Authorization: Bearer %s' %s/events-participant/%d\n", token, *baseURL, *userID)
}
