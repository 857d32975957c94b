package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "inventory":
		handleInventory(args)
	case "order":
		handleOrder(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: storefront auth <login|logout|who>")
		return
	}

	switch args[0] {
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", args[0])
	}
}

func handleInventory(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: storefront inventory <list|low-stock|adjust>")
		return
	}

	switch args[0] {
	case "list":
		listInventory()
	case "low-stock":
		listLowStock()
	case "adjust":
		adjustStock(args[1:])
	default:
		fmt.Printf("unknown inventory command: %s\n", args[0])
	}
}

func handleOrder(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: storefront order <list|get|status|cancel>")
		return
	}

	switch args[0] {
	case "list":
		listOrders()
	case "get":
		getOrder(args[1:])
	case "status":
		updateOrderStatus(args[1:])
	case "cancel":
		cancelOrder(args[1:])
	default:
		fmt.Printf("unknown order command: %s\n", args[0])
	}
}

// apiResponse matches the server's response envelope.
type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"email": *email, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result apiResponse
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode != 200 {
		fmt.Printf("✗ Login failed: %s\n", result.Message)
		return
	}

	var body struct {
		Tokens struct {
			AccessToken string `json:"accessToken"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(result.Data, &body); err != nil || body.Tokens.AccessToken == "" {
		fmt.Println("✗ Login response missing token")
		return
	}
	saveToken(body.Tokens.AccessToken)
	fmt.Printf("✓ Logged in as: %s\n", *email)
}

func logoutUser() {
	req, _ := http.NewRequest("POST", getAPIURL()+"/auth/logout", nil)
	addAuthHeader(req)
	if resp, err := http.DefaultClient.Do(req); err == nil {
		resp.Body.Close()
	}
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/users/me", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result apiResponse
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode != 200 {
		fmt.Println("Not logged in")
		return
	}

	var user struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	json.Unmarshal(result.Data, &user)
	fmt.Printf("✓ Logged in as %s (%s)\n", user.Email, user.Role)
}

func listInventory() {
	var recs []map[string]interface{}
	if !getJSON("/inventory", &recs) {
		return
	}
	printRecords(recs)
}

func listLowStock() {
	var recs []map[string]interface{}
	if !getJSON("/inventory/low-stock", &recs) {
		return
	}
	printRecords(recs)
}

func printRecords(recs []map[string]interface{}) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCT\tSTOCK\tRESERVED\tPRICE")
	for _, rec := range recs {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n",
			rec["id"], rec["productId"], rec["currentStock"], rec["reservedStock"], rec["sellingPrice"])
	}
	w.Flush()
}

func adjustStock(args []string) {
	fs := flag.NewFlagSet("adjust", flag.ExitOnError)
	id := fs.String("id", "", "inventory record ID")
	delta := fs.Int("delta", 0, "stock delta (positive restocks, negative corrects)")

	fs.Parse(args)

	if *id == "" || *delta == 0 {
		fmt.Println("Error: id and a non-zero delta are required")
		fs.PrintDefaults()
		return
	}

	payload, _ := json.Marshal(map[string]int{"delta": *delta})
	req, _ := http.NewRequest("POST", getAPIURL()+"/inventory/"+*id+"/stock", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result apiResponse
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Stock adjusted by %d\n", *delta)
	} else {
		fmt.Printf("✗ Adjust failed: %s\n", result.Message)
	}
}

func listOrders() {
	var orders []map[string]interface{}
	if !getJSON("/orders", &orders) {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPAYMENT\tTOTAL\tCREATED")
	for _, o := range orders {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n",
			o["id"], o["status"], o["paymentStatus"], o["total"], o["createdAt"])
	}
	w.Flush()
}

func getOrder(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: storefront order get <order-id>")
		return
	}

	var order map[string]interface{}
	if !getJSON("/orders/"+args[0], &order) {
		return
	}
	pretty, _ := json.MarshalIndent(order, "", "  ")
	fmt.Println(string(pretty))
}

func updateOrderStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	id := fs.String("id", "", "order ID")
	status := fs.String("to", "", "next status (CONFIRMED, PROCESSING, SHIPPED, OUT_FOR_DELIVERY, DELIVERED)")
	note := fs.String("note", "", "history note")

	fs.Parse(args)

	if *id == "" || *status == "" {
		fmt.Println("Error: id and to are required")
		fs.PrintDefaults()
		return
	}

	payload, _ := json.Marshal(map[string]string{"status": *status, "note": *note})
	req, _ := http.NewRequest("POST", getAPIURL()+"/orders/"+*id+"/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result apiResponse
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Order moved to %s\n", *status)
	} else {
		fmt.Printf("✗ Status update failed: %s\n", result.Message)
	}
}

func cancelOrder(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: storefront order cancel <order-id>")
		return
	}

	req, _ := http.NewRequest("POST", getAPIURL()+"/orders/"+args[0]+"/cancel", nil)
	addAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result apiResponse
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		fmt.Println("✓ Order cancelled")
	} else {
		fmt.Printf("✗ Cancel failed: %s\n", result.Message)
	}
}

// getJSON fetches an endpoint and decodes the envelope's data field.
func getJSON(path string, dst interface{}) bool {
	req, _ := http.NewRequest("GET", getAPIURL()+path, nil)
	addAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	var result apiResponse
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode != 200 {
		fmt.Printf("✗ Request failed: %s\n", result.Message)
		return false
	}
	if err := json.Unmarshal(result.Data, dst); err != nil {
		fmt.Printf("Error: %v\n", err)
		return false
	}
	return true
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("STOREFRONT_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.storefront/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.storefront", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`Storefront CLI

Usage:
  storefront <command> [options]

Commands:
  auth       Authentication (login, logout, who)
  inventory  Seller inventory (list, low-stock, adjust)
  order      Orders (list, get, status, cancel)
  help       Show this help message

Environment Variables:
  STOREFRONT_API    API endpoint (default: http://localhost:8080/api)

Examples:
  storefront auth login -email seller@example.com -password pass
  storefront inventory low-stock
  storefront order status -id <order-id> -to SHIPPED
`)
}
