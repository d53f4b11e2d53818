package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest carries the parameters for registering a customer.
type RegisterRequest struct {
	FirstName string
	LastName  string
	Street    string
	City      string
	State     string
	Zip       int
	Email     string
	Password  string
}

// CustomerService handles customer registration and authentication.
type CustomerService struct {
	customers CustomerRepository
}

// NewCustomerService creates a CustomerService.
func NewCustomerService(customers CustomerRepository) *CustomerService {
	return &CustomerService{customers: customers}
}

// Register creates a new customer with a bcrypt-hashed password.
func (s *CustomerService) Register(ctx context.Context, req RegisterRequest) (*Customer, error) {
	if req.FirstName == "" || req.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrInvalidRequest)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidRequest)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	customer := &Customer{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Street:       req.Street,
		City:         req.City,
		State:        req.State,
		Zip:          req.Zip,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Authenticate verifies the email/password pair. Unknown email and wrong
// password both return ErrInvalidCredentials.
func (s *CustomerService) Authenticate(ctx context.Context, email, password string) (*Customer, error) {
	customer, err := s.customers.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(customer.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return customer, nil
}

// Get retrieves a customer by id.
func (s *CustomerService) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.customers.GetByID(ctx, id)
}
